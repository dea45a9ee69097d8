package envstate

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound means no state has been recorded for the (site, environment)
// pair yet.
var ErrNotFound = errors.New("no recorded state for environment")

// Store persists environment state records in a local sqlite database.
type Store struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Open opens (and migrates) the state database at path. Use ":memory:"
// for tests.
func Open(path string, log hclog.Logger) (*Store, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	log.Debug("opened environment state database", "path", path)
	return &Store{db: db, logger: log.Named("envstate")}, nil
}

// Get returns the recorded state for one environment of a site.
func (s *Store) Get(siteID, environment string) (*Record, error) {
	var r Record
	err := s.db.
		Where("site_id = ? AND environment = ?", siteID, environment).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environment state: %w", err)
	}
	return &r, nil
}

// Put upserts the state record for one environment of a site.
func (s *Store) Put(r *Record) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "site_id"}, {Name: "environment"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"connection_mode", "addons", "last_synced", "updated_at",
		}),
	}).Create(r).Error
	if err != nil {
		return fmt.Errorf("failed to write environment state: %w", err)
	}

	s.logger.Debug("environment state recorded",
		"site", r.SiteID, "environment", r.Environment, "mode", r.ConnectionMode)
	return nil
}

// List returns every recorded environment state for a site.
func (s *Store) List(siteID string) ([]Record, error) {
	var records []Record
	err := s.db.
		Where("site_id = ?", siteID).
		Order("environment").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list environment states: %w", err)
	}
	return records, nil
}

// Delete removes the record for one environment of a site. Deleting an
// absent record is not an error.
func (s *Store) Delete(siteID, environment string) error {
	err := s.db.
		Where("site_id = ? AND environment = ?", siteID, environment).
		Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete environment state: %w", err)
	}
	return nil
}
