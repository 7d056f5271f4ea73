package main

import (
	"cental/src/db"
	"cental/src/models"
	"cental/src/rental"
	"cental/src/types"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var bookings []models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{UserID: userId}).
					Preload("Car").
					Order("pickup_date desc").
					Find(&bookings).
					Error
				if err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var booking models.Booking
			ss := db.Session(&gorm.Session{PrepareStmt: true})
			if err := ss.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: params.ID, UserID: userId}).
				Preload("Car").
				Preload("Payment").
				First(&booking).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			err := ctx.ShouldBindUri(&params)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID, UserID: userId}).
					First(&booking).
					Error
				if err != nil {
					return err
				}
				if !rental.CanTransition(booking.Status, types.BOOKING_CANCELLED) {
					return &rental.InvalidTransitionError{From: booking.Status, To: types.BOOKING_CANCELLED}
				}
				err = tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					Update("status", types.BOOKING_CANCELLED).
					Error
				if err != nil {
					return err
				}
				if booking.PaymentID == nil {
					return nil
				}
				// A payment with no live bookings left has nothing to collect.
				var remaining int64
				if err := tx.
					Model(&models.Booking{}).
					Where("payment_id = ? AND status <> ?", *booking.PaymentID, types.BOOKING_CANCELLED).
					Count(&remaining).
					Error; err != nil {
					return err
				}
				if remaining == 0 {
					if err := tx.
						Model(&models.Payment{}).
						Where("id = ? AND status = ?", *booking.PaymentID, types.PAYMENT_PENDING).
						Update("status", types.PAYMENT_CANCELLED).
						Error; err != nil {
						return err
					}
				}
				return nil
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
				log.Printf("Could not complete request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}

			ctx.Status(http.StatusNoContent)
		}).
		GET("/bookings/:id/voucher", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: params.ID, UserID: userId}).
				First(&booking).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if booking.Status != types.BOOKING_CONFIRMED && booking.Status != types.BOOKING_COMPLETED {
				err := fmt.Errorf("no voucher available for a %s booking", booking.Status)
				ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			if booking.VoucherURL == "" {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": booking.VoucherURL})
		})
	return g
}
