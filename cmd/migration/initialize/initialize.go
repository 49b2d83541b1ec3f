package initialize

import (
	"newsdigest/config"
	. "newsdigest/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeInterests(db, log); err != nil {
		return log.Err("failed to initialize interests", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// initializeInterests upserts the predefined interests by slug so renames and
// category changes are applied on the next migration run.
func initializeInterests(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing interest reference data")

	for _, interest := range PredefinedInterests {
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{"name", "description", "newsapi_category", "display_order", "updated_at"},
			),
		}).Create(&interest).Error
		if err != nil {
			return log.Err("failed to upsert interest", err, "slug", interest.Slug)
		}
		log.Debug("Interest initialized", "slug", interest.Slug, "category", interest.NewsAPICategory)
	}

	log.Info("Interest reference data initialized", "count", len(PredefinedInterests))
	return nil
}
