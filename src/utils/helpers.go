package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path"
	"strings"
	"time"
	"unicode"

	"cental/src/config"
	"cental/src/db"
	"cental/src/lib"
	"cental/src/models"
	"cental/src/rental"
	"cental/src/types"

	awslib "cental/src/lib/aws"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/stripe/stripe-go/v82"
	"github.com/yeqown/go-qrcode"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// WithSuffix appends the environment suffix to a queue or topic name so
// deployments do not share queues.
func WithSuffix(name string) string {
	suffix := os.Getenv("QUEUE_SUFFIX")
	if suffix == "" {
		suffix = config.API_ENV
	}
	if suffix == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", name, suffix)
}

func GenerateJWT(email string, userId uint, session string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Username: email,
		Session:  session,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userId),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}

func ParseRentalDate(s string) (time.Time, error) {
	return time.Parse(config.DATE_PARSE_FORMAT, s)
}

// LineItemsFromRequest converts validated request bodies into engine line
// items. Binding has already checked formats and ordering.
func LineItemsFromRequest(items []types.RentalLineItem) ([]rental.LineItem, error) {
	out := make([]rental.LineItem, 0, len(items))
	for _, item := range items {
		pickup, err := ParseRentalDate(item.PickupDate)
		if err != nil {
			return nil, err
		}
		ret, err := ParseRentalDate(item.ReturnDate)
		if err != nil {
			return nil, err
		}
		out = append(out, rental.LineItem{
			CarID:          item.CarID,
			PickupDate:     pickup,
			ReturnDate:     ret,
			PickupLocation: item.PickupLocation,
		})
	}
	return out, nil
}

func MakeCarSlug(brand, model string, year uint) string {
	return slug.Make(fmt.Sprintf("%s-%s-%d-%s", brand, model, year, uuid.NewString()[:8]))
}

var commonPasswords = []string{
	"password", "12345678", "123456789", "qwerty123", "password1", "password123",
}

// ValidatePassword enforces the signup password policy: at least 8
// characters with upper, lower, digit and special characters, and not a
// known common password.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lowered == common {
			return errors.New("password is too common")
		}
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return errors.New("password must contain uppercase, lowercase, number and special characters")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AmountInCents converts a 2-decimal money figure to the integer cents
// stripe expects. Rounds, since truncating drops a cent whenever the
// float sits just under the true value.
func AmountInCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CreateStripeCheckout builds a hosted checkout session for a pending
// payment, with one line per booking plus tax and service fee lines.
func CreateStripeCheckout(payment *models.Payment) (*string, *string, error) {
	sc := lib.GetStripeClient()
	successUrl := fmt.Sprintf("%s/checkout/callback/success", os.Getenv("APP_HOST"))
	cancelUrl := fmt.Sprintf("%s/checkout/callback/cancel", os.Getenv("APP_HOST"))
	metadata := map[string]string{
		"payment_id": fmt.Sprint(payment.ID),
		"user_id":    fmt.Sprint(payment.UserID),
	}

	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	for _, booking := range payment.Bookings {
		name := fmt.Sprintf("Car rental #%d", booking.CarID)
		if booking.Car != nil {
			name = fmt.Sprintf("%s %s (%s to %s)",
				booking.Car.Brand,
				booking.Car.CarModel,
				booking.PickupDate.Format(config.DATE_PARSE_FORMAT),
				booking.ReturnDate.Format(config.DATE_PARSE_FORMAT),
			)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(payment.Currency),
				UnitAmount: stripe.Int64(AmountInCents(booking.LineTotal)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}
	lineItems = append(lineItems,
		&stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(payment.Currency),
				UnitAmount: stripe.Int64(AmountInCents(payment.TaxAmount)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String("Tax (14%)"),
				},
			},
			Quantity: stripe.Int64(1),
		},
		&stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(payment.Currency),
				UnitAmount: stripe.Int64(AmountInCents(payment.ServiceFee)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String("Service Fee"),
				},
			},
			Quantity: stripe.Int64(1),
		},
	)

	createParams := stripe.CheckoutSessionCreateParams{
		SuccessURL: stripe.String(successUrl),
		CancelURL:  stripe.String(cancelUrl),
		UIMode:     stripe.String("hosted"),
		Mode:       stripe.String("payment"),
		LineItems:  lineItems,
		Metadata:   metadata,
	}
	if payment.ValidUntil != nil {
		createParams.ExpiresAt = stripe.Int64(payment.ValidUntil.Unix())
	}
	checkoutSession, err := sc.V1CheckoutSessions.Create(context.Background(), &createParams)
	if err != nil {
		log.Printf("CreateStripeCheckout failed: %s\n", err.Error())
		return nil, nil, err
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: payment.ID}).
			Updates(&models.Payment{
				SourceName:  "checkout_session",
				SourceValue: checkoutSession.ID,
			}).Error
	})
	if err != nil {
		log.Printf("Error while updating Payment: %s\n", err.Error())
		return nil, nil, err
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if _, err := rd.SetEx(context.Background(), checkoutSession.ID, fmt.Sprint(payment.ID), time.Hour).Result(); err != nil {
			log.Printf("Error caching value [%s]: %s\n", checkoutSession.ID, err.Error())
		}
	}
	return &checkoutSession.URL, &checkoutSession.ID, nil
}

// GeneratePickupVoucher renders a QR voucher for a confirmed booking and
// uploads it. Returns a presigned URL.
func GeneratePickupVoucher(booking *models.Booking) (*string, error) {
	payload := fmt.Sprintf("booking:%d:user:%d:pickup:%s", booking.ID, booking.UserID, booking.PickupDate.Format(config.DATE_PARSE_FORMAT))
	qrc, err := qrcode.New(payload)
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	tempdir := os.Getenv("TEMP_DIR")
	filename := fmt.Sprintf("voucher_%d_%s", booking.ID, uuid.NewString()[:8])
	filepath := path.Join(wd, tempdir, fmt.Sprintf("%s.jpeg", filename))
	if err = qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return nil, err
	}
	defer os.Remove(filepath)
	url, err := awslib.S3UploadAsset(filename, filepath, "image/jpeg")
	if err != nil {
		return nil, err
	}
	return url, nil
}
