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
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func schedulePaymentExpiry(payment *models.Payment) {
	if payment.ValidUntil == nil {
		return
	}
	payloadId := uuid.NewString()
	jobTask := models.JobTask{
		Name:       "PendingPayments",
		JobType:    "OneTimeJobStartDateTime",
		RunsAt:     *payment.ValidUntil,
		PayloadID:  payloadId,
		Source:     "checkout",
		SourceType: "payment",
		Topic:      utils.WithSuffix("PendingPayments"),
		Payload: types.JSONB{
			"id":        payment.ID,
			"payloadId": payloadId,
		},
	}
	if _, err := jobTask.CreateAndEnqueueJobTask(jobTask); err != nil {
		log.Printf("Could not schedule expiry for payment [%d]: %s\n", payment.ID, err.Error())
	}
}

func releaseFailedCheckout(paymentId uint) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: paymentId}).
			Update("status", types.PAYMENT_CANCELLED).
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Booking{}).
			Where("payment_id = ? AND status = ?", paymentId, types.BOOKING_PENDING).
			Update("status", types.BOOKING_CANCELLED).
			Error
	})
	if err != nil {
		log.Printf("Error releasing failed checkout [%d]: %s\n", paymentId, err.Error())
	}
}

func transactionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/checkout", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				// Only an absent body falls back to the stored cart. A
				// body that fails binding is the caller's mistake.
				if !errors.Is(err, io.EOF) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				cart, cerr := loadCart(userId)
				if cerr != nil || len(cart) == 0 {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "checkout requires line items or a non-empty cart"})
					return
				}
				body.Items = cart
			}
			items, err := utils.LineItemsFromRequest(body.Items)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			engine := rentalEngine()
			payment, err := engine.Checkout(ctx.Request.Context(), userId, items)
			if err != nil {
				var conflict *rental.ConflictError
				if errors.As(err, &conflict) {
					ctx.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "conflicts": conflict.Items})
					return
				}
				var invalid *rental.InvalidLineItemError
				if errors.As(err, &invalid) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error()})
					return
				}
				log.Printf("error on checkout: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			go schedulePaymentExpiry(payment)

			db := db.GetDb()
			if err := db.
				Where(&models.Payment{ID: payment.ID}).
				Preload("Bookings").
				Preload("Bookings.Car").
				First(payment).
				Error; err != nil {
				log.Printf("Could not reload payment [%d]: %s\n", payment.ID, err.Error())
			}

			url, csid, err := utils.CreateStripeCheckout(payment)
			if err != nil {
				log.Printf("error on checkout: %s\n", err.Error())
				releaseFailedCheckout(payment.ID)
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not start payment session"})
				return
			}

			go func() {
				if rd := lib.GetRedisClient(); rd != nil {
					rd.Del(context.Background(), cartKey(userId))
				}
			}()

			log.Printf("URL: %s\n", *url)
			ctx.JSON(http.StatusOK, gin.H{"url": *url, "session_id": *csid, "payment_id": payment.ID})
		}).
		GET("/payments", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var payments []models.Payment
			db := db.GetDb()
			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{UserID: userId}).
				Preload("Bookings").
				Order("created_at desc").
				Find(&payments).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var payment models.Payment
			db := db.GetDb()
			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{ID: params.ID, UserID: userId}).
				Preload("Bookings").
				Preload("Bookings.Car").
				First(&payment).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		})
	return g
}
