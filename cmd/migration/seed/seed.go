package seed

import (
	"newsdigest/config"
	. "newsdigest/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type seedUser struct {
	email         string
	displayName   string
	preferredTime TimeOfDay
	interests     []string
}

var seedUsers = []seedUser{
	{
		email:         "demo@example.com",
		displayName:   "Demo Reader",
		preferredTime: NewTimeOfDay(7, 0, 0),
		interests:     []string{"technology", "science", "economics"},
	},
	{
		email:         "sports@example.com",
		displayName:   "Sports Fan",
		preferredTime: NewTimeOfDay(18, 30, 0),
		interests:     []string{"sports", "entertainment"},
	},
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	for _, seed := range seedUsers {
		var existing User
		if err := db.First(&existing, "email = ?", seed.email).Error; err == nil {
			log.Info("User already exists", "email", seed.email)
			continue
		}

		var interests []Interest
		if err := db.Where("slug IN ?", seed.interests).Find(&interests).Error; err != nil {
			return log.Err("failed to load interests", err, "email", seed.email)
		}

		user := User{
			Email:         seed.email,
			DisplayName:   seed.displayName,
			PreferredTime: seed.preferredTime,
			IsActive:      true,
			Interests:     interests,
		}
		if err := db.Create(&user).Error; err != nil {
			return log.Err("failed to create user", err, "email", seed.email)
		}
		log.Info("Seeded user", "email", user.Email, "userID", user.ID, "interestCount", len(interests))
	}

	return nil
}
