package handlers

import (
	"net/http"

	"tourify/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the cached dependency status from the background monitor.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Mongo {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": "success", "data": status})
}
