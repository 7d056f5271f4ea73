package main

import (
	"cental/src/db"
	"cental/src/lib"
	"cental/src/models"
	"cental/src/rental"
	"cental/src/types"
	"cental/src/utils"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func rentalEngine() *rental.Engine {
	return rental.NewEngine(rental.NewGormStore(db.GetDb()), rental.Config{})
}

func carListCacheKey(filters *types.CarQueryFilters) string {
	empty := types.CarQueryFilters{}
	if *filters == empty {
		return "cars:all"
	}
	return ""
}

func carHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/cars", func(ctx *gin.Context) {
			var filters types.CarQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rd := lib.GetRedisClient()
			cacheKey := carListCacheKey(&filters)
			if rd != nil && cacheKey != "" {
				if val := rd.JSONGet(context.Background(), cacheKey).Val(); val != "" {
					var cached []models.Car
					if err := json.Unmarshal([]byte(val), &cached); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": cached, "count": len(cached)})
						return
					}
				}
			}
			var cars []models.Car
			db := db.GetDb()
			q := db.Model(&models.Car{})
			if filters.Brand != "" {
				q = q.Where("brand = ?", filters.Brand)
			}
			if filters.Category != "" {
				q = q.Where("category = ?", filters.Category)
			}
			if filters.Transmission != "" {
				q = q.Where("transmission = ?", filters.Transmission)
			}
			if filters.FuelType != "" {
				q = q.Where("fuel_type = ?", filters.FuelType)
			}
			if filters.Seats > 0 {
				q = q.Where("seats >= ?", filters.Seats)
			}
			if filters.MaxPrice > 0 {
				q = q.Where("price_per_day <= ?", filters.MaxPrice)
			}
			if filters.Available != nil {
				q = q.Where("available = ?", *filters.Available)
			}
			if err := q.Order("brand asc, model asc").Find(&cars).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if rd != nil && cacheKey != "" {
				go func() {
					if err := rd.JSONSet(context.Background(), cacheKey, "$", &cars).Err(); err != nil {
						log.Printf("[redis] Error caching car list: %s\n", err.Error())
					}
					rd.Expire(context.Background(), cacheKey, 5*time.Minute)
				}()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": cars, "count": len(cars)})
		}).
		GET("/cars/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var car models.Car
			db := db.GetDb()
			if err := db.
				Model(&models.Car{}).
				Where(&models.Car{ID: params.ID}).
				First(&car).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var ranges []types.BookedRange
			if err := db.
				Model(&models.Booking{}).
				Select("pickup_date", "return_date").
				Where("car_id = ? AND status IN ?", car.ID, []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
				Where("return_date >= ?", time.Now().Truncate(24*time.Hour)).
				Order("pickup_date asc").
				Find(&ranges).
				Error; err != nil {
				log.Printf("Error loading booked ranges for car [%d]: %s\n", car.ID, err.Error())
			}
			ctx.JSON(http.StatusOK, gin.H{"data": car, "booked_ranges": ranges})
		}).
		GET("/cars/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query types.CarAvailabilityQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			pickup, err := utils.ParseRentalDate(query.PickupDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ret, err := utils.ParseRentalDate(query.ReturnDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			engine := rentalEngine()
			available, err := engine.IsAvailable(ctx.Request.Context(), params.ID, pickup, ret)
			if err != nil {
				if errors.Is(err, rental.ErrCarNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"available": available})
		}).
		POST("/cars/quote", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			items, err := utils.LineItemsFromRequest(body.Items)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			engine := rentalEngine()
			quote, err := engine.ComputeTotals(ctx.Request.Context(), items)
			if err != nil {
				var invalid *rental.InvalidLineItemError
				if errors.As(err, &invalid) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": quote})
		})
	return g
}
