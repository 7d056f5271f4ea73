package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"cental/src/db"
	"cental/src/lib"
	"cental/src/models"
	"cental/src/types"
	"cental/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sessionTTL = 7 * 24 * time.Hour

func newSession(ctx context.Context, userId uint) (string, error) {
	session := uuid.NewString()
	rd := lib.GetRedisClient()
	if rd == nil {
		return session, nil
	}
	key := fmt.Sprintf("session:%s", session)
	if err := rd.Set(ctx, key, fmt.Sprint(userId), sessionTTL).Err(); err != nil {
		return "", err
	}
	return session, nil
}

func AuthRegister(ctx *gin.Context) (token *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if err := utils.ValidatePassword(body.Password); err != nil {
		return nil, http.StatusBadRequest, err
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	db := db.GetDb()
	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.
			Model(&models.User{}).
			Select("id").
			Where("LOWER(email) = ?", email).
			First(&existing).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("could not complete transaction")
			}
		}
		if existing.ID > 0 {
			err := errors.New("user is already registered in the system. Please proceed to Log In")
			log.Printf("error: %s\n", err.Error())
			return err
		}
		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			return err
		}
		user = models.User{
			Name:         body.Name,
			Email:        email,
			Role:         string(types.ROLE_CUSTOMER),
			PasswordHash: hash,
		}
		if err := tx.Create(&user).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return fmt.Errorf("error creating user: %s", email)
		}
		return nil
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	session, err := newSession(ctx, user.ID)
	if err != nil {
		log.Printf("[redis] Error creating session: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	jwt, err := utils.GenerateJWT(user.Email, user.ID, session)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	db := db.GetDb()
	var user models.User
	if err = db.
		Model(&models.User{}).
		Where("LOWER(email) = ?", email).
		First(&user).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusUnauthorized, errors.New("invalid email or password")
	}
	if !utils.CheckPassword(user.PasswordHash, body.Password) {
		return nil, http.StatusUnauthorized, errors.New("invalid email or password")
	}

	session, err := newSession(ctx, user.ID)
	if err != nil {
		log.Printf("[redis] Error creating session: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	jwt, err := utils.GenerateJWT(user.Email, user.ID, session)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	if rd := lib.GetRedisClient(); rd != nil {
		if _, err := rd.JSONSet(ctx, fmt.Sprintf("%d:user", user.ID), "$", &user).Result(); err != nil {
			log.Printf("[redis] Error updating user cache: %s\n", err.Error())
		}
	}
	return &jwt, http.StatusOK, nil
}

func AuthLogout(ctx *gin.Context) (status int, err error) {
	session := ctx.GetString("session")
	if session == "" {
		return http.StatusNoContent, nil
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if err := rd.Del(ctx, fmt.Sprintf("session:%s", session)).Err(); err != nil {
			log.Printf("[redis] Error deleting session: %s\n", err.Error())
			return http.StatusInternalServerError, err
		}
	}
	return http.StatusNoContent, nil
}
