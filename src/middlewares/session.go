package middlewares

import (
	"context"
	"fmt"

	"cental/src/lib"
	"cental/src/types"

	"github.com/gin-gonic/gin"
)

// sessionAlive checks the redis-backed session referenced by the token.
// When no redis client is configured the JWT alone is trusted.
func sessionAlive(ctx *gin.Context, claims *types.Claims) bool {
	if claims.Session == "" {
		return false
	}
	rd := lib.GetRedisClient()
	if rd == nil {
		return true
	}
	key := fmt.Sprintf("session:%s", claims.Session)
	val, err := rd.Get(context.Background(), key).Result()
	if err != nil {
		return false
	}
	return val == claims.Subject
}
