package main

import (
	"cental/src/common"
	"cental/src/db"
	"cental/src/models"
	"cental/src/rental"
	"cental/src/types"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

func paymentIdFromSession(cs *stripe.CheckoutSession) (uint, bool) {
	id := cs.Metadata["payment_id"]
	atoi, err := strconv.Atoi(id)
	if err != nil {
		log.Printf("Could not retrieve payment id for session %s: %s\n", cs.ID, err.Error())
		return 0, false
	}
	return uint(atoi), true
}

func confirmPayment(paymentId uint, sessionId string) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.
			Where(&models.Payment{ID: paymentId}).
			First(&payment).
			Error; err != nil {
			return err
		}
		if payment.Status != types.PAYMENT_PENDING {
			log.Printf("Payment [%d] is %s, skipping confirmation\n", paymentId, payment.Status)
			return nil
		}
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: paymentId}).
			Updates(&models.Payment{
				Status:      types.PAYMENT_PAID,
				SourceName:  "checkout_session",
				SourceValue: sessionId,
			}).
			Error; err != nil {
			return err
		}
		var bookings []models.Booking
		if err := tx.
			Model(&models.Booking{}).
			Where("payment_id = ?", paymentId).
			Find(&bookings).
			Error; err != nil {
			return err
		}
		for _, booking := range bookings {
			if !rental.CanTransition(booking.Status, types.BOOKING_CONFIRMED) {
				log.Printf("Booking [%d] is %s, cannot confirm\n", booking.ID, booking.Status)
				continue
			}
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Update("status", types.BOOKING_CONFIRMED).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error confirming payment [%d]: %s\n", paymentId, err.Error())
		return
	}
	go common.NotifyPaymentConfirmed(paymentId)
}

func expireCheckoutSession(paymentId uint) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.
			Where(&models.Payment{ID: paymentId}).
			First(&payment).
			Error; err != nil {
			return err
		}
		if payment.Status != types.PAYMENT_PENDING {
			return nil
		}
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: paymentId}).
			Update("status", types.PAYMENT_EXPIRED).
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
		log.Printf("Error expiring payment [%d]: %s\n", paymentId, err.Error())
	}
}

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			paymentId, ok := paymentIdFromSession(&cs)
			if !ok {
				break
			}
			go confirmPayment(paymentId, cs.ID)
		case "checkout.session.expired":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			log.Printf("[CheckoutSession] ID: %s expired\n", cs.ID)
			paymentId, ok := paymentIdFromSession(&cs)
			if !ok {
				break
			}
			go expireCheckoutSession(paymentId)
		}
		ctx.Status(http.StatusNoContent)
	})
	return apiv1
}
