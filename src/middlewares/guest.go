package middlewares

import (
	"net/http"

	"cental/src/config"

	"github.com/gin-gonic/gin"
)

// GuestMiddleware gates the signup/login endpoints behind the shared API
// secret so they are only reachable by the site frontend.
func GuestMiddleware(ctx *gin.Context) {
	secret := ctx.GetHeader("X-Api-Secret")
	if secret == "" || secret != config.API_SECRET {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
}
