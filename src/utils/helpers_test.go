package utils

import (
	"strings"
	"testing"

	"cental/src/types"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	assert.Nil(t, ValidatePassword("Sup3r$ecret"))
	assert.NotNil(t, ValidatePassword("short"))
	assert.NotNil(t, ValidatePassword("Password123"))
	assert.NotNil(t, ValidatePassword("alllowercase1!"))
	assert.NotNil(t, ValidatePassword("PASSWORD123"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret")
	assert.Nil(t, err)
	assert.True(t, CheckPassword(hash, "Sup3r$ecret"))
	assert.False(t, CheckPassword(hash, "someother"))
}

func TestMakeCarSlug(t *testing.T) {
	s := MakeCarSlug("BMW", "X5", 2023)
	assert.True(t, strings.HasPrefix(s, "bmw-x5-2023-"))

	assert.NotEqual(t, MakeCarSlug("BMW", "X5", 2023), MakeCarSlug("BMW", "X5", 2023))
}

func TestAmountInCents(t *testing.T) {
	// amounts whose float64 form sits just under the true value and
	// would lose a cent under truncation
	assert.Equal(t, int64(29), AmountInCents(0.29))
	assert.Equal(t, int64(57), AmountInCents(0.57))
	assert.Equal(t, int64(113), AmountInCents(1.13))

	assert.Equal(t, int64(0), AmountInCents(0))
	assert.Equal(t, int64(500), AmountInCents(5.00))
	assert.Equal(t, int64(12345), AmountInCents(123.45))
	assert.Equal(t, int64(2000000000), AmountInCents(20000000.00))
}

func TestLineItemsFromRequest(t *testing.T) {
	items, err := LineItemsFromRequest([]types.RentalLineItem{
		{CarID: 1, PickupDate: "2099-06-01", ReturnDate: "2099-06-04", PickupLocation: "Airport"},
	})
	assert.Nil(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, uint(1), items[0].CarID)
	assert.Equal(t, "Airport", items[0].PickupLocation)
	assert.Equal(t, 3, int(items[0].ReturnDate.Sub(items[0].PickupDate).Hours()/24))

	_, err = LineItemsFromRequest([]types.RentalLineItem{
		{CarID: 1, PickupDate: "06/01/2099", ReturnDate: "2099-06-04"},
	})
	assert.NotNil(t, err)
}
