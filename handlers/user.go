package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tourify/database/repository"
	"tourify/middleware"
	"tourify/models"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
)

// UserStore is the slice of the user repository the user handler needs.
// Satisfied by *repository.UserRepo.
type UserStore interface {
	repository.Collection[models.User]
	Deactivate(ctx context.Context, id string) error
}

// UserHandler serves the user admin endpoints and the self-service /me
// routes.
type UserHandler struct {
	factory *Factory[models.User, models.UserUpdate]
	users   UserStore
}

// NewUserHandler wires the user factory. Listing excludes deactivated
// accounts.
func NewUserHandler(users UserStore) *UserHandler {
	factory := &Factory[models.User, models.UserUpdate]{
		Coll: users,
		Name: "user",
		Scope: func(c *gin.Context) bson.M {
			return bson.M{"active": bson.M{"$ne": false}}
		},
	}
	return &UserHandler{factory: factory, users: users}
}

func (h *UserHandler) GetAllUsers(c *gin.Context) { h.factory.GetAll(c) }
func (h *UserHandler) GetUser(c *gin.Context)     { h.factory.GetOne(c) }
func (h *UserHandler) UpdateUser(c *gin.Context)  { h.factory.UpdateOne(c) }
func (h *UserHandler) DeleteUser(c *gin.Context)  { h.factory.DeleteOne(c) }

// CreateUser is deliberately not implemented. Accounts are created through
// signup so the password lifecycle is never bypassed.
func (h *UserHandler) CreateUser(c *gin.Context) {
	utils.Fail(c, utils.BadRequest("This route is not defined! Please use /signup instead"))
}

// GetMe returns the authenticated principal.
func (h *UserHandler) GetMe(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": principal})
}

// updateMeInput is the self-service profile payload. Role is deliberately
// absent; users cannot promote themselves.
type updateMeInput struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Photo *string `json:"photo"`
}

// UpdateMe lets the principal change name, email and photo. Password keys
// are rejected outright so this path can never alter credentials.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		utils.Fail(c, utils.BadRequest("Failed to read request body"))
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		utils.Fail(c, utils.BadRequest("Invalid JSON payload"))
		return
	}
	for _, key := range []string{"password", "passwordConfirm"} {
		if _, ok := raw[key]; ok {
			utils.Fail(c, utils.BadRequest("This route is not for password updates. Please use /update-my-password."))
			return
		}
	}

	var input updateMeInput
	if err := binding.JSON.BindBody(body, &input); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	patch := bson.M{}
	if input.Name != nil {
		patch["name"] = *input.Name
	}
	if input.Email != nil {
		patch["email"] = *input.Email
	}
	if input.Photo != nil {
		patch["photo"] = *input.Photo
	}
	if len(patch) == 0 {
		utils.Fail(c, utils.BadRequest("No updatable fields provided"))
		return
	}

	updated, err := h.users.UpdateByID(c.Request.Context(), principal.ID, patch)
	if err != nil {
		h.factory.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
}

// DeleteMe deactivates the account rather than deleting it, so reviews and
// bookings keep a valid owner reference.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), principal.ID); err != nil {
		h.factory.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
