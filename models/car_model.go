package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Car struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID      uuid.UUID `gorm:"not null" json:"owner_id"`
	Make         string    `gorm:"size:100;not null" json:"make"`
	Model        string    `gorm:"size:100;not null" json:"model"`
	Year         int       `gorm:"not null" json:"year"`
	PricePerDay  float64   `gorm:"type:numeric(10,2);not null" json:"price_per_day"`
	City         string    `gorm:"size:100" json:"city"`
	Seats        int       `gorm:"default:5" json:"seats"`
	Transmission string    `gorm:"size:20" json:"transmission"`
	Status       string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	// Older rows store these columns as a JSON-encoded string rather than a
	// native array; read through FeatureList/ImageList, never directly.
	Features datatypes.JSON `json:"features"`
	Images   datatypes.JSON `json:"images"`

	AvgRating float32 `gorm:"default:0" json:"avg_rating"`

	Owner User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	CarStatusPending  = "pending"
	CarStatusApproved = "approved"
	CarStatusRejected = "rejected"
)

func (c *Car) FeatureList() []string {
	return NormalizeStringList(c.Features)
}

func (c *Car) ImageList() []string {
	return NormalizeStringList(c.Images)
}

// NormalizeStringList coerces a JSON column into a list of strings. The column
// holds either a native array, or a legacy doubly-encoded string containing a
// JSON array, or a legacy bare string meaning a single-element list.
func NormalizeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return []string{}
	}
	if legacy == "" {
		return []string{}
	}
	if err := json.Unmarshal([]byte(legacy), &list); err == nil && list != nil {
		return list
	}
	return []string{legacy}
}

func MarshalStringList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	raw, _ := json.Marshal(list)
	return datatypes.JSON(raw)
}
