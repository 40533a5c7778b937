package handlers

import (
	"fmt"
	"net/http"

	"tourify/middleware"
	authService "tourify/services/auth"
	"tourify/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves signup, login and the password lifecycle.
type AuthHandler struct {
	svc *authService.Service
}

// NewAuthHandler wires the auth handler.
func NewAuthHandler(svc *authService.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup registers an account and logs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var input authService.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	user, token, err := h.svc.SignUp(c.Request.Context(), input)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "token": token, "data": user})
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.BadRequest("Please provide email and password"))
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token, "data": user})
}

// ForgotPassword mails a reset link built from the requesting host.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.BadRequest("Please provide your email address"))
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	resetURLBase := fmt.Sprintf("%s://%s/api/v1/users/reset-password", scheme, c.Request.Host)

	if err := h.svc.ForgotPassword(c.Request.Context(), input.Email, resetURLBase); err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

// ResetPassword consumes the token from the path and sets the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input struct {
		Password        string `json:"password" binding:"required,min=8"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	token, err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), input.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

// UpdatePassword changes the logged-in user's password and re-issues the
// token.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}

	var input struct {
		PasswordCurrent string `json:"passwordCurrent" binding:"required"`
		Password        string `json:"password" binding:"required,min=8"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	token, err := h.svc.UpdatePassword(c.Request.Context(), principal.ID, input.PasswordCurrent, input.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}
