package main

import (
	"cental/src/db"
	"cental/src/middlewares"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const origin = "http://localhost:3000"

type TestSuite struct {
	suite.Suite
	Mock sqlmock.Sqlmock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("rentaldate", rentalDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
	}

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		s.T().Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqldb}), &gorm.Config{
		ConnPool: sqldb,
	})
	if err != nil {
		s.T().Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	s.Mock = mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	publicRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/cars", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestGuestSecretGate() {
	router := setupRouter()
	guestAuthRoutes(router)

	jbody := map[string]any{
		"email":    "someone@example.com",
		"password": "Sup3r$ecret",
	}
	sbody, _ := json.Marshal(&jbody)

	s.Run("rejects requests without the api secret", func() {
		w := httptest.NewRecorder()
		loginReq, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
		loginReq.Header.Set("origin", origin)
		router.ServeHTTP(w, loginReq)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("rejects requests with a wrong api secret", func() {
		w := httptest.NewRecorder()
		registerReq, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		registerReq.Header.Set("X-Api-Secret", "not-the-secret")
		registerReq.Header.Set("origin", origin)
		router.ServeHTTP(w, registerReq)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func (s *TestSuite) TestAuthMiddlewareRejectsBadTokens() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	bookingHandlers(apiv1)

	s.Run("missing token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("malformed token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func (s *TestSuite) TestCarsValidation() {
	router := setupRouter()
	publicRoutes(router)

	s.Run("rejects a non-numeric car id", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/cars/abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects an availability query with reversed dates", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/cars/1/availability?pickup_date=2099-06-04&return_date=2099-06-01", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects an availability query with a past pickup date", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/cars/1/availability?pickup_date=2020-01-01&return_date=2099-06-01", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestQuoteValidation() {
	router := setupRouter()
	publicRoutes(router)

	s.Run("rejects an empty cart", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/cars/quote", strings.NewReader(`{"items":[]}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)

		body := w.Body.String()
		errMsg := gjson.Get(body, "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("rejects a line item without a pickup location", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/cars/quote", strings.NewReader(
			`{"items":[{"car_id":1,"pickup_date":"2099-06-01","return_date":"2099-06-04"}]}`,
		))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestCheckoutBodyHandling() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(func(ctx *gin.Context) { ctx.Set("id", uint(1)) })
	transactionHandlers(apiv1)

	s.Run("rejects a malformed body instead of falling back to the cart", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"items":[{]}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.NotContains(s.T(), w.Body.String(), "cart")
	})

	s.Run("requires a cart when the body is absent", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/checkout", strings.NewReader(""))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.Contains(s.T(), w.Body.String(), "non-empty cart")
	})
}

func (s *TestSuite) TestBookingCompletionBeforeReturnDate() {
	router := setupRouter()
	admin := router.Group("/api/v1/admin")
	admin.Use(func(ctx *gin.Context) { ctx.Set("id", uint(1)); ctx.Set("role", "admin") })
	adminHandlers(admin)

	rows := sqlmock.NewRows([]string{"id", "status", "return_date"}).
		AddRow(7, "confirmed", time.Now().Add(48*time.Hour))
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(rows)
	s.Mock.ExpectRollback()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/admin/bookings/7/status", strings.NewReader(`{"status":"completed"}`))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
	assert.Contains(s.T(), w.Body.String(), "cannot be completed before its return date")
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestCarsList() {
	router := setupRouter()
	publicRoutes(router)

	rows := sqlmock.NewRows([]string{"id", "brand", "model", "year", "price_per_day", "available"}).
		AddRow(1, "BMW", "X5", 2023, 120.0, true).
		AddRow(2, "Toyota", "Corolla", 2022, 49.99, true)
	s.Mock.ExpectQuery(`SELECT (.+) FROM "cars"`).WillReturnRows(rows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/cars", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)

	body := w.Body.String()
	assert.Equal(s.T(), int64(2), gjson.Get(body, "count").Int())
	assert.Equal(s.T(), "BMW", gjson.Get(body, "data.0.brand").String())
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
