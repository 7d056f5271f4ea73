package utils

import (
	"log"
	"math/rand"
	"os"

	"cental/src/db"
	"cental/src/models"

	"github.com/go-faker/faker/v4"
	"gorm.io/gorm"
)

var seedBrands = map[string][]string{
	"BMW":        {"X5", "M3", "320i"},
	"Toyota":     {"Corolla", "RAV4", "Camry"},
	"Ford":       {"Mustang", "Focus", "Explorer"},
	"Jeep":       {"Wrangler", "Cherokee"},
	"Mercedes":   {"C-Class", "GLA"},
	"Volkswagen": {"Golf", "Tiguan"},
}

var seedCategories = []string{"Sedan", "SUV", "Hatchback", "Convertible"}
var seedTransmissions = []string{"Automatic", "Manual"}
var seedFuelTypes = []string{"Petrol", "Diesel", "Hybrid", "Electric"}
var seedLocations = []string{"Airport", "Downtown", "Central Station"}

// SeedCars fills the inventory with random cars. Enabled with SEED_DB=1.
func SeedCars(n int) error {
	database := db.GetDb()
	var count int64
	if err := database.Model(&models.Car{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Inventory already has %d cars. Skipping seed", count)
		return nil
	}
	return database.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < n; i++ {
			brand := seedBrandKeys()[rand.Intn(len(seedBrands))]
			model := seedBrands[brand][rand.Intn(len(seedBrands[brand]))]
			year := uint(2016 + rand.Intn(10))
			car := models.Car{
				Brand:        brand,
				CarModel:     model,
				Year:         year,
				Category:     seedCategories[rand.Intn(len(seedCategories))],
				Seats:        uint8(2 + rand.Intn(6)),
				Doors:        uint8(2 + rand.Intn(4)),
				Transmission: seedTransmissions[rand.Intn(len(seedTransmissions))],
				FuelType:     seedFuelTypes[rand.Intn(len(seedFuelTypes))],
				Mileage:      "Unlimited",
				Description:  faker.Sentence(),
				PricePerDay:  float64(30 + rand.Intn(170)),
				Available:    true,
				Slug:         MakeCarSlug(brand, model, year),
			}
			if err := tx.Create(&car).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d cars", n)
		return nil
	})
}

// EnsureAdminUser creates the admin account from env when missing.
func EnsureAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	database := db.GetDb()
	return database.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		admin := models.User{
			Name:         "Administrator",
			Email:        email,
			Role:         "admin",
			PasswordHash: hash,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		log.Printf("Created admin user [%d]", admin.ID)
		return nil
	})
}

func seedBrandKeys() []string {
	keys := make([]string, 0, len(seedBrands))
	for k := range seedBrands {
		keys = append(keys, k)
	}
	return keys
}
