package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/propertypulse/backend/internal/config"
	"github.com/propertypulse/backend/internal/db"
	"github.com/propertypulse/backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.User{}, &model.Property{}, &model.PurchaseRequest{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("users already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := []model.User{
			{Email: "admin@propertypulse.dev", FirstName: "Asha", LastName: "Rao", Role: model.RoleAdmin},
			{Email: "lena.marsh@propertypulse.dev", FirstName: "Lena", LastName: "Marsh", Role: model.RoleLandlord},
			{Email: "vikram.shah@propertypulse.dev", FirstName: "Vikram", LastName: "Shah", Role: model.RoleLandlord},
			{Email: "tom.iyer@propertypulse.dev", FirstName: "Tom", LastName: "Iyer", Role: model.RoleTenant},
			{Email: "priya.nair@propertypulse.dev", FirstName: "Priya", LastName: "Nair", Role: model.RoleTenant},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}

		landlords := map[string]uint64{}
		for _, u := range users {
			if u.Role == model.RoleLandlord {
				landlords[u.Email] = u.ID
			}
		}

		properties := []model.Property{
			{
				Title:        "2BR flat on Hill Road",
				Description:  "Bright second-floor apartment close to the station.",
				Address:      "14 Hill Road",
				City:         "Mumbai",
				State:        "MH",
				PropertyType: model.PropertyApartment,
				ListingType:  model.ListingForSale,
				SalePrice:    decimal.NewFromInt(6500000),
				Available:    true,
				Active:       true,
				LandlordID:   landlords["lena.marsh@propertypulse.dev"],
			},
			{
				Title:        "Garden house in Indiranagar",
				Description:  "Three bedrooms, small garden, quiet lane.",
				Address:      "22 Binnamangala 1st Stage",
				City:         "Bengaluru",
				State:        "KA",
				PropertyType: model.PropertyHouse,
				ListingType:  model.ListingBoth,
				MonthlyRent:  decimal.NewFromInt(85000),
				SalePrice:    decimal.NewFromInt(21000000),
				Available:    true,
				Active:       true,
				LandlordID:   landlords["vikram.shah@propertypulse.dev"],
			},
			{
				Title:        "Studio near IT park",
				Description:  "Compact studio, rent only.",
				Address:      "5 Hinjewadi Phase 2",
				City:         "Pune",
				State:        "MH",
				PropertyType: model.PropertyApartment,
				ListingType:  model.ListingForRent,
				MonthlyRent:  decimal.NewFromInt(28000),
				Available:    true,
				Active:       true,
				LandlordID:   landlords["lena.marsh@propertypulse.dev"],
			},
		}
		if err := tx.Create(&properties).Error; err != nil {
			return fmt.Errorf("insert properties: %w", err)
		}

		log.Printf("seeded %d users and %d properties", len(users), len(properties))
		return nil
	})
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.User{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
