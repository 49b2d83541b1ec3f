package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DigestStatus string

const (
	DigestStatusPending   DigestStatus = "pending"
	DigestStatusCompleted DigestStatus = "completed"
	DigestStatusFailed    DigestStatus = "failed"
)

// Digest is unique per (user_id, digest_date).
type Digest struct {
	BaseUUIDModel
	UserID            uuid.UUID                            `gorm:"type:uuid;not null;uniqueIndex:idx_digests_user_date,priority:1" json:"user_id"`
	DigestDate        time.Time                            `gorm:"type:date;not null;uniqueIndex:idx_digests_user_date,priority:2" json:"digest_date"`
	Content           string                               `gorm:"type:text"                                                     json:"content"`
	Summary           string                               `gorm:"type:text"                                                     json:"summary"`
	HeadlinesUsed     datatypes.JSONSlice[HeadlineSnapshot] `gorm:"type:jsonb"                                                    json:"headlines_used"`
	InterestsIncluded datatypes.JSONSlice[string]           `gorm:"type:jsonb"                                                    json:"interests_included"`
	WordCount         int                                  `gorm:"default:0"                                                     json:"word_count"`
	Status            DigestStatus                         `gorm:"type:varchar(20);not null;default:pending;index"               json:"status"`
	ErrorMessage      *string                              `gorm:"type:text"                                                     json:"error_message"`
	GenerationTimeMs  *int64                               `gorm:"type:bigint"                                                   json:"generation_time_ms"`
	User              *User                                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"                  json:"-"`
}

func (d *Digest) IsCompleted() bool {
	return d.Status == DigestStatusCompleted
}
