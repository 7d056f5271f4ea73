package common

import (
	"cental/src/config"
	"cental/src/db"
	"cental/src/lib"
	awslib "cental/src/lib/aws"
	"cental/src/lib/mailer"
	"cental/src/models"
	"cental/src/types"
	"cental/src/utils"
	"fmt"
	"log"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// expirePaymentHold releases the cars held by a payment that was never
// completed. Paid payments are left alone: the webhook may have landed
// between scheduling and firing.
func expirePaymentHold(paymentId uint, payloadId string) {
	var payment models.Payment
	expired := false
	database := db.GetDb()
	if err := database.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Payment{ID: paymentId}).
			Preload("User").
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
		if err := tx.
			Model(&models.Booking{}).
			Where("payment_id = ? AND status = ?", paymentId, types.BOOKING_PENDING).
			Update("status", types.BOOKING_CANCELLED).
			Error; err != nil {
			return err
		}
		expired = true
		return nil
	}); err != nil {
		log.Printf("Error expiring payment [%d]: %s\n", paymentId, err.Error())
		return
	}

	if expired {
		log.Printf("[PendingPayments] payment [%d] expired, held cars released\n", paymentId)
		go sendPaymentExpiredEmail(&payment)
	}

	// UPDATE JOB
	go func() {
		database := db.GetDb()
		err := database.Transaction(func(tx *gorm.DB) error {
			err := tx.Where(&models.JobTask{PayloadID: payloadId}).Updates(&models.JobTask{Status: "done"}).Error
			if err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			log.Printf("Error updating job status: %s\n", err.Error())
		}
	}()
}

func sendPaymentExpiredEmail(payment *models.Payment) {
	if payment.User == nil {
		return
	}
	input := &lib.SendMailInput{
		Subject:  "Your car rental checkout has expired",
		From:     config.SMTP_FROM,
		FromName: "noreply",
		To:       []string{payment.User.Email},
		Body: fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Your checkout was not completed in time and the cars you selected have been released.</p>
			<p>The dates you wanted may still be available. You can start a new booking any time.</p>
			<p>This is a system-generated message. Do not reply to this email.</p>
			`,
			payment.User.Name,
		),
		Html: true,
	}
	if err := mailer.NewMailerMessage(input); err != nil {
		log.Printf("[mailer] Error sending message: %s\n", err.Error())
	}
}

// pendingPaymentFromPayload reads the scheduler's job payload. Both the
// kafka and SQS paths carry the raw payload with no envelope.
func pendingPaymentFromPayload(spayload string) (uint, string) {
	paymentId := uint(gjson.Get(spayload, "id").Int())
	payloadId := gjson.Get(spayload, "payloadId").String()
	return paymentId, payloadId
}

func KafkaPendingPaymentsConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[PendingPayments]: Received invalid json body. Aborting")
		return
	}
	paymentId, payloadId := pendingPaymentFromPayload(spayload)
	log.Printf("[PendingPayments] payment: %d\n", paymentId)
	go expirePaymentHold(paymentId, payloadId)
}

func PendingPaymentsConsumer() {
	qname := utils.WithSuffix("PendingPayments")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		paymentId, payloadId := pendingPaymentFromPayload(body)
		log.Printf("[PendingPayments] payment: %d\n", paymentId)
		go expirePaymentHold(paymentId, payloadId)
	})
	c.Listen()
}
