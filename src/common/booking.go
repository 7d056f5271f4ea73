package common

import (
	"cental/src/config"
	"cental/src/db"
	"cental/src/lib"
	"cental/src/lib/mailer"
	"cental/src/models"
	"cental/src/types"
	"cental/src/utils"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

// NotifyPaymentConfirmed runs the post-payment side effects: pickup
// vouchers, the confirmation email, and the downstream status feed.
// Callers fire it after the confirming transaction has committed.
func NotifyPaymentConfirmed(paymentId uint) {
	var payment models.Payment
	database := db.GetDb()
	if err := database.
		Where(&models.Payment{ID: paymentId}).
		Preload("User").
		Preload("Bookings").
		Preload("Bookings.Car").
		First(&payment).
		Error; err != nil {
		log.Printf("Could not retrieve payment [%d]: %s\n", paymentId, err.Error())
		return
	}

	go func() {
		vouchers := issuePickupVouchers(payment.Bookings)
		sendBookingConfirmationEmail(&payment, vouchers)
	}()

	if config.API_ENV != string(types.Local) {
		go func() {
			msg, _ := json.Marshal(map[string]any{
				"id":     payment.ID,
				"status": payment.Status,
			})
			if err := lib.SNSPublish("BookingUpdates", string(msg)); err != nil {
				log.Printf("Error publishing booking update for payment [%d]: %s\n", payment.ID, err.Error())
			}
		}()
	}
}

func issuePickupVouchers(bookings []models.Booking) map[uint]string {
	vouchers := map[uint]string{}
	for _, booking := range bookings {
		url, err := utils.GeneratePickupVoucher(&booking)
		if err != nil {
			log.Printf("Could not generate voucher for booking [%d]: %s\n", booking.ID, err.Error())
			continue
		}
		vouchers[booking.ID] = *url
		database := db.GetDb()
		if err := database.Transaction(func(tx *gorm.DB) error {
			return tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Update("voucher_url", *url).
				Error
		}); err != nil {
			log.Printf("Error saving voucher for booking [%d]: %s\n", booking.ID, err.Error())
		}
	}
	return vouchers
}

func sendBookingConfirmationEmail(payment *models.Payment, vouchers map[uint]string) {
	if payment.User == nil {
		log.Printf("No user loaded for payment [%d]. Skipping confirmation email\n", payment.ID)
		return
	}
	var summary strings.Builder
	for _, booking := range payment.Bookings {
		car := booking.Car
		if car == nil {
			continue
		}
		summary.WriteString(fmt.Sprintf(`
			<div>
				<h3>%s %s</h3>
				<p><b>Pickup Date:</b> %s</p>
				<p><b>Return Date:</b> %s</p>
				<p><b>Pickup Location:</b> %s</p>
				<p><b>Price:</b> $%.2f</p>
			</div>
			`,
			car.Brand,
			car.CarModel,
			booking.PickupDate.Format(config.DATE_PARSE_FORMAT),
			booking.ReturnDate.Format(config.DATE_PARSE_FORMAT),
			booking.PickupLocation,
			booking.LineTotal,
		))
		if url, ok := vouchers[booking.ID]; ok {
			summary.WriteString(fmt.Sprintf(`<p><a href="%s">Pickup Voucher</a></p>`, url))
		}
	}
	taxRate := config.GetTaxRate()
	input := &lib.SendMailInput{
		Subject:  fmt.Sprintf("Order Confirmation - Payment #%d", payment.ID),
		From:     config.SMTP_FROM,
		FromName: "Cental Car Rental",
		To:       []string{payment.User.Email},
		Body: fmt.Sprintf(`
			<h1>Order Confirmation</h1>
			<p>Dear %s,</p>
			<p>Thank you for your booking with Cental Car Rental. Your order has been confirmed.</p>
			<h2>Booking Summary</h2>
			%s
			<h2>Payment Summary</h2>
			<p><b>Subtotal:</b> $%.2f</p>
			<p><b>Tax (%.0f%%):</b> $%.2f</p>
			<p><b>Service Fee:</b> $%.2f</p>
			<p><b>Total:</b> $%.2f</p>
			<p>This is an automated message, please do not reply directly to this email.</p>
			`,
			payment.User.Name,
			summary.String(),
			payment.Subtotal,
			taxRate*100,
			payment.TaxAmount,
			payment.ServiceFee,
			payment.Total,
		),
		Html: true,
	}
	if err := mailer.NewMailerMessage(input); err != nil {
		log.Printf("[mailer] Error sending message: %s\n", err.Error())
	}
}
