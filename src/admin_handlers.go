package main

import (
	"cental/src/db"
	"cental/src/lib"
	"cental/src/models"
	"cental/src/rental"
	"cental/src/types"
	"cental/src/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	awslib "cental/src/lib/aws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxCarImages    = 5
	maxCarImageSize = 5 << 20
)

func invalidateCarCache() {
	if rd := lib.GetRedisClient(); rd != nil {
		rd.Del(context.Background(), "cars:all")
	}
}

// deleteCarImages removes uploaded car images from S3. Keys were
// presigned on upload, so the object name is the URL path base.
func deleteCarImages(urls []string) {
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			log.Printf("Could not parse image url [%s]: %s\n", raw, err.Error())
			continue
		}
		if err := awslib.S3DeleteAsset(path.Base(u.Path)); err != nil {
			log.Printf("Error deleting image [%s]: %s\n", raw, err.Error())
		}
	}
}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/dashboard", func(ctx *gin.Context) {
			db := db.GetDb()
			var carCount, userCount int64
			var revenue float64
			recentBookings := make([]models.Booking, 0)
			statusCounts := make([]struct {
				Status string `json:"status"`
				Count  int64  `json:"count"`
			}, 0)
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.Car{}).Count(&carCount).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Count(&userCount).Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Booking{}).
					Select("status, count(*) as count").
					Group("status").
					Scan(&statusCounts).
					Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Payment{}).
					Where("status = ?", types.PAYMENT_PAID).
					Select("COALESCE(SUM(total), 0)").
					Scan(&revenue).
					Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Booking{}).
					Preload("Car").
					Preload("User").
					Preload("Payment").
					Order("created_at desc").
					Limit(10).
					Find(&recentBookings).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"cars":            carCount,
				"users":           userCount,
				"bookings":        statusCounts,
				"revenue":         revenue,
				"recent_bookings": recentBookings,
			}})
		}).
		POST("/cars", func(ctx *gin.Context) {
			var body types.CreateCarRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			car := models.Car{
				Brand:        body.Brand,
				CarModel:     body.CarModel,
				Year:         body.Year,
				Category:     body.Category,
				Seats:        body.Seats,
				Doors:        body.Doors,
				Transmission: body.Transmission,
				FuelType:     body.FuelType,
				Mileage:      body.Mileage,
				Description:  body.Description,
				PricePerDay:  body.PricePerDay,
				Available:    true,
				Slug:         utils.MakeCarSlug(body.Brand, body.CarModel, body.Year),
				CreatedBy:    userId,
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&car).Error
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go invalidateCarCache()
			ctx.JSON(http.StatusCreated, gin.H{"data": car})
		}).
		PUT("/cars/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateCarRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updates := models.Car{
				Brand:        body.Brand,
				CarModel:     body.CarModel,
				Year:         body.Year,
				Category:     body.Category,
				Seats:        body.Seats,
				Doors:        body.Doors,
				Transmission: body.Transmission,
				FuelType:     body.FuelType,
				Mileage:      body.Mileage,
				Description:  body.Description,
			}
			if body.PricePerDay != nil {
				updates.PricePerDay = *body.PricePerDay
			}
			removed := make([]string, 0)
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var car models.Car
				if err := tx.Where(&models.Car{ID: params.ID}).First(&car).Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Car{}).
					Where(&models.Car{ID: params.ID}).
					Updates(&updates).
					Error; err != nil {
					return err
				}
				if len(body.DeletedImages) == 0 {
					return nil
				}
				kept := make(types.JSONBArray, 0)
				for _, img := range car.Images {
					url, ok := img.(string)
					if ok && slices.Contains(body.DeletedImages, url) {
						removed = append(removed, url)
						continue
					}
					kept = append(kept, img)
				}
				return tx.
					Model(&models.Car{}).
					Where(&models.Car{ID: params.ID}).
					Update("images", kept).
					Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go deleteCarImages(removed)
			go invalidateCarCache()
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/cars/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				Available *bool `json:"available" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var car models.Car
				if err := tx.Where(&models.Car{ID: params.ID}).First(&car).Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Car{}).
					Where(&models.Car{ID: params.ID}).
					Update("available", *body.Available).
					Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go invalidateCarCache()
			ctx.Status(http.StatusNoContent)
		}).
		POST("/cars/:id/images", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			form, err := ctx.MultipartForm()
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			files := form.File["images"]
			if len(files) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})
				return
			}
			if len(files) > maxCarImages {
				err := fmt.Errorf("at most %d images per upload", maxCarImages)
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var car models.Car
			db := db.GetDb()
			if err := db.Where(&models.Car{ID: params.ID}).First(&car).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			urls := make([]any, 0, len(files))
			for _, file := range files {
				contentType := file.Header.Get("Content-Type")
				if !strings.HasPrefix(contentType, "image/") {
					err := fmt.Errorf("file %s is not an image", file.Filename)
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				if file.Size > maxCarImageSize {
					err := fmt.Errorf("file %s exceeds the 5MB limit", file.Filename)
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				filename := fmt.Sprintf("car_%d_%s", params.ID, uuid.NewString()[:8])
				filepath := path.Join(tempdir, filename)
				if err := ctx.SaveUploadedFile(file, filepath); err != nil {
					log.Printf("Could not save uploaded file: %s\n", err.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
				url, err := awslib.S3UploadAsset(filename, filepath, contentType)
				os.Remove(filepath)
				if err != nil {
					log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
					ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not store image"})
					return
				}
				urls = append(urls, *url)
			}
			images := append(car.Images, urls...)
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.Car{}).
					Where(&models.Car{ID: params.ID}).
					Update("images", images).
					Error
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go invalidateCarCache()
			ctx.JSON(http.StatusOK, gin.H{"data": images})
		}).
		DELETE("/cars/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			images := make([]string, 0)
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var active int64
				if err := tx.
					Model(&models.Booking{}).
					Where("car_id = ? AND status IN (?)", params.ID, []types.BookingStatus{
						types.BOOKING_PENDING,
						types.BOOKING_CONFIRMED,
					}).
					Count(&active).
					Error; err != nil {
					return err
				}
				if active > 0 {
					return fmt.Errorf("car [%d] still has %d active bookings", params.ID, active)
				}
				var car models.Car
				if err := tx.Where(&models.Car{ID: params.ID}).First(&car).Error; err != nil {
					return err
				}
				for _, img := range car.Images {
					if url, ok := img.(string); ok {
						images = append(images, url)
					}
				}
				return tx.Delete(&models.Car{}, params.ID).Error
			})
			if err != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			go deleteCarImages(images)
			go invalidateCarCache()
			ctx.Status(http.StatusNoContent)
		}).
		GET("/bookings", func(ctx *gin.Context) {
			var query struct {
				Status string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Booking{}).
				Preload("Car").
				Preload("User").
				Order("created_at desc")
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var bookings []models.Booking
			if err := q.Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateBookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			to := types.BookingStatus(body.Status)
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Where(&models.Booking{ID: params.ID}).
					First(&booking).
					Error; err != nil {
					return err
				}
				if !rental.CanTransition(booking.Status, to) {
					return &rental.InvalidTransitionError{From: booking.Status, To: to}
				}
				if to == types.BOOKING_COMPLETED && time.Now().Before(booking.ReturnDate) {
					return fmt.Errorf("booking [%d] cannot be completed before its return date", booking.ID)
				}
				return tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					Update("status", to).
					Error
			})
			if err != nil {
				var invalid *rental.InvalidTransitionError
				if errors.As(err, &invalid) {
					ctx.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
					return
				}
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Where(&models.Booking{ID: params.ID}).
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.Status == types.BOOKING_PENDING || booking.Status == types.BOOKING_CONFIRMED {
					return fmt.Errorf("booking [%d] is still %s, cancel it first", booking.ID, booking.Status)
				}
				return tx.Delete(&models.Booking{}, params.ID).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/contact-messages", func(ctx *gin.Context) {
			var messages []models.ContactMessage
			db := db.GetDb()
			if err := db.Order("created_at desc").Find(&messages).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": messages, "count": len(messages)})
		})
	return g
}
