package models

import (
	"strings"
	"time"
)

// SchoolLevel is the education tier a school belongs to.
type SchoolLevel string

const (
	LevelRA  SchoolLevel = "RA"
	LevelTK  SchoolLevel = "TK"
	LevelMI  SchoolLevel = "MI"
	LevelMTs SchoolLevel = "MTs"
	LevelMA  SchoolLevel = "MA"
)

// SchoolLevels lists levels in display order, youngest first.
var SchoolLevels = []SchoolLevel{LevelRA, LevelTK, LevelMI, LevelMTs, LevelMA}

// ParseSchoolLevel matches raw case-insensitively against the known levels.
func ParseSchoolLevel(raw string) (SchoolLevel, bool) {
	for _, lvl := range SchoolLevels {
		if strings.EqualFold(string(lvl), strings.TrimSpace(raw)) {
			return lvl, true
		}
	}
	return "", false
}

// School is one of the foundation's institutions.
type School struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Level       SchoolLevel `db:"level" json:"level"`
	Description *string     `db:"description" json:"description,omitempty"`
	Address     *string     `db:"address" json:"address,omitempty"`
	Phone       *string     `db:"phone" json:"phone,omitempty"`
	Email       *string     `db:"email" json:"email,omitempty"`
	Website     *string     `db:"website" json:"website,omitempty"`
	LogoURL     *string     `db:"logo_url" json:"logo_url,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// SchoolFilter narrows school listings. An empty Level means all levels.
type SchoolFilter struct {
	Level SchoolLevel
}
