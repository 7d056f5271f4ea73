package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Model struct {
	Timestamps

	ID uint `gorm:"id,primaryKey"`
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_COMPLETED BookingStatus = "completed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_PAID      PaymentStatus = "paid"
	PAYMENT_CANCELLED PaymentStatus = "cancelled"
	PAYMENT_EXPIRED   PaymentStatus = "expired"
)

type Environment string

const (
	Production Environment = "production"
	Test       Environment = "test"
	Local      Environment = "local"
)

type UserRole string

const (
	ROLE_CUSTOMER UserRole = "customer"
	ROLE_ADMIN    UserRole = "admin"
)

type CarQueryFilters struct {
	Brand        string `form:"brand"`
	Category     string `form:"category"`
	Transmission string `form:"transmission"`
	FuelType     string `form:"fuel_type"`
	Seats        uint8  `form:"seats"`
	MaxPrice     uint   `form:"max_price"`
	Available    *bool  `form:"available"`
}

type CarAvailabilityQuery struct {
	PickupDate string `form:"pickup_date" binding:"required,rentaldate"`
	ReturnDate string `form:"return_date" binding:"required,rentaldate,gtdate=PickupDate"`
}

type BookedRange struct {
	PickupDate time.Time `json:"pickup_date"`
	ReturnDate time.Time `json:"return_date"`
}

type RentalLineItem struct {
	CarID          uint   `json:"car_id" binding:"required"`
	PickupDate     string `json:"pickup_date" binding:"required,rentaldate"`
	ReturnDate     string `json:"return_date" binding:"required,rentaldate,gtdate=PickupDate"`
	PickupLocation string `json:"pickup_location" binding:"required"`
}

type CheckoutRequestBody struct {
	Items []RentalLineItem `json:"items" binding:"required,min=1,dive"`
}

type CartItemRequestBody struct {
	RentalLineItem
}

type CreateCarRequestBody struct {
	Brand        string  `json:"brand" binding:"required"`
	CarModel     string  `json:"model" binding:"required"`
	Year         uint    `json:"year" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	Seats        uint8   `json:"seats" binding:"required"`
	Doors        uint8   `json:"doors" binding:"required"`
	Transmission string  `json:"transmission" binding:"required"`
	FuelType     string  `json:"fuel_type" binding:"required"`
	Mileage      string  `json:"mileage,omitempty"`
	Description  string  `json:"description,omitempty"`
	PricePerDay  float64 `json:"price_per_day" binding:"required,gt=0"`
}

type UpdateCarRequestBody struct {
	Brand        string   `json:"brand,omitempty"`
	CarModel     string   `json:"model,omitempty"`
	Year         uint     `json:"year,omitempty"`
	Category     string   `json:"category,omitempty"`
	Seats        uint8    `json:"seats,omitempty"`
	Doors        uint8    `json:"doors,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	FuelType     string   `json:"fuel_type,omitempty"`
	Mileage      string   `json:"mileage,omitempty"`
	Description  string   `json:"description,omitempty"`
	PricePerDay  *float64 `json:"price_per_day,omitempty" binding:"omitempty,gt=0"`

	DeletedImages []string `json:"deleted_images,omitempty"`
}

type UpdateBookingStatusRequestBody struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginUserRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ContactRequestBody struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type APIResponseCar struct {
	ID           uint     `json:"id"`
	Brand        string   `json:"brand,omitempty"`
	CarModel     string   `json:"model,omitempty"`
	Year         uint     `json:"year,omitempty"`
	Category     string   `json:"category,omitempty"`
	Seats        uint8    `json:"seats,omitempty"`
	Doors        uint8    `json:"doors,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	FuelType     string   `json:"fuel_type,omitempty"`
	Mileage      string   `json:"mileage,omitempty"`
	Description  string   `json:"description,omitempty"`
	PricePerDay  float64  `json:"price_per_day,omitempty"`
	Available    bool     `json:"available"`
	Images       []string `json:"images,omitempty"`
	Slug         string   `json:"slug,omitempty"`

	Timestamps
}

type APIResponseBooking struct {
	ID             uint       `json:"id,omitempty"`
	CarID          uint       `json:"car_id,omitempty"`
	UserID         uint       `json:"user_id,omitempty"`
	Status         string     `json:"status,omitempty"`
	PickupDate     *time.Time `json:"pickup_date,omitempty"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	PickupLocation string     `json:"pickup_location,omitempty"`
	Days           uint       `json:"days,omitempty"`
	LineTotal      float64    `json:"line_total,omitempty"`
	Currency       string     `json:"currency,omitempty"`

	Car *APIResponseCar `json:"car,omitempty"`

	Timestamps
}

type APIResponsePayment struct {
	ID         uint       `json:"id"`
	Status     string     `json:"status,omitempty"`
	Subtotal   float64    `json:"subtotal,omitempty"`
	TaxAmount  float64    `json:"tax_amount,omitempty"`
	ServiceFee float64    `json:"service_fee,omitempty"`
	Total      float64    `json:"total,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	Bookings []*APIResponseBooking `json:"bookings,omitempty"`

	Timestamps
}

type APIResponseUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	Bookings []*APIResponseBooking `json:"bookings,omitempty"`
}

type ExpirePaymentJobFn func(id uint)

type Handler func(payload string)
