package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Success writes the {"result":"success"} body of state-changing endpoints
// that have nothing else to return.
func Success(c *gin.Context) {
	JSON(c, http.StatusOK, gin.H{"result": "success"})
}
