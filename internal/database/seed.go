package database

import (
	"fmt"

	"example.com/backstage/services/farm/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultCropProfiles returns the reference profiles shipped with the
// service. Stage day ranges are inclusive, contiguous and cover day 1
// through the profile duration.
func defaultCropProfiles() []models.CropProfile {
	return []models.CropProfile{
		{
			CropType:     "maize",
			DurationDays: 120,
			Stages: []models.CropStage{
				{Position: 1, Name: "germination", StartDay: 1, EndDay: 20, MoistureMinPct: 70, MoistureMaxPct: 85},
				{Position: 2, Name: "vegetative", StartDay: 21, EndDay: 55, MoistureMinPct: 60, MoistureMaxPct: 80},
				{Position: 3, Name: "tasseling", StartDay: 56, EndDay: 90, MoistureMinPct: 65, MoistureMaxPct: 85},
				{Position: 4, Name: "maturation", StartDay: 91, EndDay: 120, MoistureMinPct: 40, MoistureMaxPct: 60},
			},
		},
		{
			CropType:     "tomato",
			DurationDays: 100,
			Stages: []models.CropStage{
				{Position: 1, Name: "establishment", StartDay: 1, EndDay: 15, MoistureMinPct: 70, MoistureMaxPct: 85},
				{Position: 2, Name: "vegetative", StartDay: 16, EndDay: 40, MoistureMinPct: 60, MoistureMaxPct: 75},
				{Position: 3, Name: "flowering", StartDay: 41, EndDay: 70, MoistureMinPct: 65, MoistureMaxPct: 80},
				{Position: 4, Name: "ripening", StartDay: 71, EndDay: 100, MoistureMinPct: 50, MoistureMaxPct: 65},
			},
		},
		{
			CropType:     "beans",
			DurationDays: 90,
			Stages: []models.CropStage{
				{Position: 1, Name: "germination", StartDay: 1, EndDay: 12, MoistureMinPct: 65, MoistureMaxPct: 80},
				{Position: 2, Name: "vegetative", StartDay: 13, EndDay: 45, MoistureMinPct: 55, MoistureMaxPct: 75},
				{Position: 3, Name: "pod_fill", StartDay: 46, EndDay: 75, MoistureMinPct: 60, MoistureMaxPct: 80},
				{Position: 4, Name: "maturation", StartDay: 76, EndDay: 90, MoistureMinPct: 40, MoistureMaxPct: 55},
			},
		},
	}
}

// SeedCropProfiles inserts the default crop profiles, skipping any crop type
// that already exists. Returns the number of profiles created.
func SeedCropProfiles(db DB) (int, error) {
	gormDB, err := db.DB()
	if err != nil {
		return 0, err
	}

	seeded := 0
	for _, profile := range defaultCropProfiles() {
		var existing models.CropProfile
		err := gormDB.Select("id").Where("crop_type = ?", profile.CropType).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return seeded, fmt.Errorf("failed to check crop profile %q: %w", profile.CropType, err)
		}

		profile.ID = uuid.New()
		for i := range profile.Stages {
			profile.Stages[i].ID = uuid.New()
			profile.Stages[i].ProfileID = profile.ID
		}

		if err := gormDB.Create(&profile).Error; err != nil {
			return seeded, fmt.Errorf("failed to seed crop profile %q: %w", profile.CropType, err)
		}
		seeded++
	}

	return seeded, nil
}
