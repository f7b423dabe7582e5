package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"campaign-session/internal/entity"
	"campaign-session/internal/repository/unitofwork"
	"campaign-session/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// demoCampaigns use fixed ids so reseeding updates instead of duplicating.
func demoCampaigns() []entity.Campaign {
	ns := uuid.MustParse("6f1c1a36-0c1e-4b6e-9a57-3c1b8a9e2d10")
	mk := func(name string, fields map[string]interface{}) entity.Campaign {
		fields["name"] = name
		return entity.Campaign{ID: uuid.NewSHA1(ns, []byte(name)).String(), Fields: fields}
	}
	return []entity.Campaign{
		mk("Spring Launch", map[string]interface{}{"budget": 5000, "channel": "email", "active": true}),
		mk("Summer Retargeting", map[string]interface{}{"budget": 12000, "channel": "display", "active": true}),
		mk("Holiday Teaser", map[string]interface{}{"budget": 3000, "channel": "social", "active": false}),
	}
}

func loadCampaigns(path string) ([]entity.Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var campaigns []entity.Campaign
	if err := json.Unmarshal(raw, &campaigns); err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].ID == "" {
			campaigns[i].ID = uuid.NewString()
		}
	}
	return campaigns, nil
}

func main() {
	file := flag.String("file", "", "JSON array of campaigns; demo campaigns when empty")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		color.White("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer database.Close(db)

	campaigns := demoCampaigns()
	if *file != "" {
		if campaigns, err = loadCampaigns(*file); err != nil {
			color.Red("Error: Failed to read %s: %v", *file, err)
			os.Exit(1)
		}
	}

	color.Cyan("Seeding %d campaigns...", len(campaigns))

	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)
	err = unitofwork.Run(ctx, factory, func(uow unitofwork.UnitOfWork) error {
		for _, c := range campaigns {
			if err := uow.CampaignRepository().Upsert(ctx, c); err != nil {
				return fmt.Errorf("campaign %s: %w", c.ID, err)
			}
			color.Green("Upserted campaign %s", c.ID)
		}
		return nil
	})
	if err != nil {
		color.Red("Error: Seeding rolled back: %v", err)
		os.Exit(1)
	}
	color.Green("Campaign seeding completed")
}
