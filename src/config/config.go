package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const DATE_PARSE_FORMAT = "2006-01-02"

var API_ENV = os.Getenv("API_ENV")
var API_SECRET = os.Getenv("API_SECRET")
var SMTP_FROM = os.Getenv("SMTP_FROM")

const DEFAULT_TAX_RATE = 0.14
const DEFAULT_SERVICE_FEE = 5.00
const DEFAULT_CURRENCY = "usd"
const DEFAULT_PAYMENT_HOLD = time.Hour

func GetTaxRate() float64 {
	raw := os.Getenv("TAX_RATE")
	if raw == "" {
		return DEFAULT_TAX_RATE
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate < 0 {
		return DEFAULT_TAX_RATE
	}
	return rate
}

func GetServiceFee() float64 {
	raw := os.Getenv("SERVICE_FEE")
	if raw == "" {
		return DEFAULT_SERVICE_FEE
	}
	fee, err := strconv.ParseFloat(raw, 64)
	if err != nil || fee < 0 {
		return DEFAULT_SERVICE_FEE
	}
	return fee
}

func GetCurrency() string {
	if currency := os.Getenv("CURRENCY"); currency != "" {
		return currency
	}
	return DEFAULT_CURRENCY
}

func GetPaymentHold() time.Duration {
	raw := os.Getenv("PAYMENT_HOLD_MINUTES")
	if raw == "" {
		return DEFAULT_PAYMENT_HOLD
	}
	mins, err := strconv.Atoi(raw)
	if err != nil || mins <= 0 {
		return DEFAULT_PAYMENT_HOLD
	}
	return time.Duration(mins) * time.Minute
}
