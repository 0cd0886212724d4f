package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID       uuid.UUID `gorm:"not null;unique" json:"owner_id"`
	Tier          string    `gorm:"size:20;not null;default:'basic'" json:"tier"`
	BillingPeriod string    `gorm:"size:20;not null;default:'monthly'" json:"billing_period"`
	Status        string    `gorm:"size:20;not null;default:'active'" json:"status"`
	RenewsAt      *time.Time `json:"renews_at"`

	Owner User `gorm:"foreignkey:OwnerID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"

	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)
