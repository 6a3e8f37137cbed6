package utils

import "github.com/gin-gonic/gin"

// Success writes the payload directly with a 200 status. Handlers return the
// resource itself rather than an envelope, matching the web client's
// expectations.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, data)
}

// Error writes a JSON error payload describing the condition. No stack traces
// or internal details are exposed to the client.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}
