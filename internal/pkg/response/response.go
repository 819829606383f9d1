package response

import "github.com/gin-gonic/gin"

// JSON writes the payload as-is. Handlers own the exact response shape
// because the frontend contract predates this service.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
