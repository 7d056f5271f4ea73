package main

import (
	"cental/src/lib"
	"cental/src/rental"
	"cental/src/types"
	"cental/src/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const cartTTL = 24 * time.Hour

func cartKey(userId uint) string {
	return fmt.Sprintf("cart:%d", userId)
}

func loadCart(userId uint) ([]types.RentalLineItem, error) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return nil, errors.New("cart storage is not available")
	}
	items := make([]types.RentalLineItem, 0)
	val := rd.JSONGet(context.Background(), cartKey(userId)).Val()
	if val == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func saveCart(userId uint, items []types.RentalLineItem) error {
	rd := lib.GetRedisClient()
	if rd == nil {
		return errors.New("cart storage is not available")
	}
	key := cartKey(userId)
	if _, err := rd.JSONSet(context.Background(), key, "$", &items).Result(); err != nil {
		return err
	}
	rd.Expire(context.Background(), key, cartTTL)
	return nil
}

func cartHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/cart", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			items, err := loadCart(userId)
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
		}).
		POST("/cart/items", func(ctx *gin.Context) {
			var body types.CartItemRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			items, err := loadCart(userId)
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			next := append(items, body.RentalLineItem)
			lineItems, err := utils.LineItemsFromRequest(next)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			for i, item := range lineItems[:len(lineItems)-1] {
				added := lineItems[len(lineItems)-1]
				if item.CarID == added.CarID &&
					rental.Overlaps(item.PickupDate, item.ReturnDate, added.PickupDate, added.ReturnDate) {
					err := fmt.Errorf("dates overlap with item %d already in cart", i)
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
			}
			if err := saveCart(userId, next); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": next, "count": len(next)})
		}).
		DELETE("/cart/items/:id", func(ctx *gin.Context) {
			var params struct {
				Index int `uri:"id" binding:"min=0"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			items, err := loadCart(userId)
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			if params.Index >= len(items) {
				ctx.Status(http.StatusNotFound)
				return
			}
			next := append(items[:params.Index], items[params.Index+1:]...)
			if err := saveCart(userId, next); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": next, "count": len(next)})
		}).
		DELETE("/cart", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			rd := lib.GetRedisClient()
			if rd == nil {
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			if err := rd.Del(context.Background(), cartKey(userId)).Err(); err != nil {
				log.Printf("Error clearing cart for user [%d]: %s\n", userId, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
