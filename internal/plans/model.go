package plans

import "time"

const (
	TierBasic   = "basic"
	TierGold    = "gold"
	TierPremium = "premium"

	UserPlanActive    = "active"
	UserPlanExpired   = "expired"
	UserPlanCancelled = "cancelled"
)

type Plan struct {
	ID                 int64     `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Tier               string    `db:"tier" json:"tier"`
	Description        *string   `db:"description" json:"description,omitempty"`
	ConsultationsLimit *int      `db:"consultations_limit" json:"consultationsLimit"`
	MeasurementsLimit  *int      `db:"measurements_limit" json:"measurementsLimit"`
	PriceCents         int64     `db:"price_cents" json:"priceCents"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

type UserPlan struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	PlanID    int64      `db:"plan_id" json:"planId"`
	StartsAt  time.Time  `db:"starts_at" json:"startsAt"`
	EndsAt    *time.Time `db:"ends_at" json:"endsAt,omitempty"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	PlanName  string     `db:"plan_name" json:"planName"`
	PlanTier  string     `db:"plan_tier" json:"planTier"`
}

// ExpiredAt reports whether the subscription has run out at t.
func (u *UserPlan) ExpiredAt(t time.Time) bool {
	return u.EndsAt != nil && !u.EndsAt.After(t)
}

type CreatePlanRequest struct {
	Name               string  `json:"name" binding:"required"`
	Tier               string  `json:"tier" binding:"required,oneof=basic gold premium"`
	Description        *string `json:"description"`
	ConsultationsLimit *int    `json:"consultationsLimit" binding:"omitempty,gte=0"`
	MeasurementsLimit  *int    `json:"measurementsLimit" binding:"omitempty,gte=0"`
	PriceCents         int64   `json:"priceCents" binding:"gte=0"`
	Active             *bool   `json:"active"`
}

type UpdatePlanRequest struct {
	Name               *string `json:"name" binding:"omitempty,min=1"`
	Description        *string `json:"description"`
	ConsultationsLimit *int    `json:"consultationsLimit" binding:"omitempty,gte=0"`
	MeasurementsLimit  *int    `json:"measurementsLimit" binding:"omitempty,gte=0"`
	PriceCents         *int64  `json:"priceCents" binding:"omitempty,gte=0"`
	Active             *bool   `json:"active"`
}

type SubscribeRequest struct {
	PlanID int64 `json:"planId" binding:"required,gt=0"`
	// UserID lets an admin subscribe someone else.
	UserID       *int64 `json:"userId" binding:"omitempty,gt=0"`
	DurationDays *int   `json:"durationDays" binding:"omitempty,gte=1,lte=3650"`
}
