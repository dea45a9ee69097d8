// Package envstate persists per-(site, environment) facts the remote API
// does not expose cheaply: last-known connection mode and addon enablement
// flags. Records are reconciled opportunistically after reads and
// mutations, and serve as the fallback data source when an environment is
// absent remotely (local-only environments).
package envstate

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AddonFlags is a map of addon id to enablement, stored as a JSON column.
type AddonFlags map[string]bool

// Value implements driver.Valuer for database writes.
func (a AddonFlags) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database reads.
func (a *AddonFlags) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan addon flags: unsupported type")
	}

	if err := json.Unmarshal(bytes, a); err != nil {
		return fmt.Errorf("invalid addon flags in database: %w", err)
	}
	return nil
}

// Record is the last-known local state of one environment of one site.
type Record struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SiteID      string `gorm:"uniqueIndex:idx_site_environment;not null;size:255" json:"siteId"`
	Environment string `gorm:"uniqueIndex:idx_site_environment;not null;size:64" json:"environment"`

	ConnectionMode string     `gorm:"size:16" json:"connectionMode"`
	Addons         AddonFlags `gorm:"type:json" json:"addons,omitempty"`

	LastSynced time.Time `gorm:"not null" json:"lastSynced"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (Record) TableName() string {
	return "environment_states"
}

// BeforeSave stamps LastSynced when the caller did not.
func (r *Record) BeforeSave(tx *gorm.DB) error {
	if r.LastSynced.IsZero() {
		r.LastSynced = time.Now()
	}
	return nil
}
