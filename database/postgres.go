package database

import (
	"wedding-backend/config"
	"wedding-backend/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	log.Info().Msg("Database connected")

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	log.Info().Msg("Database migrated")
}

// Migrate runs AutoMigrate for all models plus the token uniqueness guard.
// Exposed so tests can run the same schema against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Family{},
		&models.Guest{},
		&models.RSVPInfo{},
		&models.DietaryOption{},
	); err != nil {
		return err
	}

	// Adult tokens must be globally unique, but every child guest carries an
	// empty token, so the constraint has to skip empty strings. Partial
	// indexes work on both postgres and the sqlite test driver.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rsvp_infos_token_unique
		 ON rsvp_infos (rsvp_token) WHERE rsvp_token <> ''`,
	).Error
}
