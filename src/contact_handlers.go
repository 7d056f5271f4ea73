package main

import (
	"cental/src/config"
	"cental/src/db"
	"cental/src/lib"
	"cental/src/lib/mailer"
	"cental/src/models"
	"cental/src/types"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func contactHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/contact", func(ctx *gin.Context) {
			var body types.ContactRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			message := models.ContactMessage{
				Name:    body.Name,
				Email:   body.Email,
				Subject: body.Subject,
				Message: body.Message,
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&message).Error
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			go func() {
				supportEmail := os.Getenv("SUPPORT_EMAIL")
				if supportEmail == "" {
					supportEmail = config.SMTP_FROM
				}
				subject := body.Subject
				if subject == "" {
					subject = "New contact message"
				}
				input := &lib.SendMailInput{
					Subject:  fmt.Sprintf("Contact Form: %s", subject),
					From:     config.SMTP_FROM,
					FromName: "Cental Car Rental",
					ReplyTo:  body.Email,
					To:       []string{supportEmail},
					Body: fmt.Sprintf(`
						<p><b>From:</b> %s (%s)</p>
						<p>%s</p>
						`,
						body.Name,
						body.Email,
						body.Message,
					),
					Html: true,
				}
				if err := mailer.NewMailerMessage(input); err != nil {
					log.Printf("[mailer] Error sending message: %s\n", err.Error())
				}
			}()

			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": message.ID}})
		})
	return g
}
