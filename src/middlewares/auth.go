package middlewares

import (
	"log"
	"os"
	"strconv"
	"strings"

	"cental/src/db"
	"cental/src/models"
	"cental/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func requestToken(ctx *gin.Context) string {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.Split(bearerToken, " ")[1]
	}
	cookie, err := ctx.Cookie("session_token")
	if err != nil {
		return ""
	}
	return cookie
}

func AuthMiddleware(ctx *gin.Context) {
	reqToken := requestToken(ctx)
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	if !sessionAlive(ctx, claims) {
		ctx.AbortWithStatus(401)
		return
	}

	db := db.GetDb()
	var user models.User
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	db.Model(&models.User{}).Where(&models.User{ID: uint(uid)}).Find(&user)

	if uint(uid) != user.ID || user.ID < 1 {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", user.Email)
	ctx.Set("id", user.ID)
	ctx.Set("role", user.Role)
	ctx.Set("session", claims.Session)
}

func AdminMiddleware(ctx *gin.Context) {
	role := ctx.GetString("role")
	if role != string(types.ROLE_ADMIN) {
		ctx.AbortWithStatus(403)
		return
	}
}
