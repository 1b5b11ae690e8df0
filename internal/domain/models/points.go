package models

import "time"

// Balance owners
const (
	OwnerOrganization       = "organization"
	OwnerSubscriptionPeriod = "subscription_period"
)

// Balance statuses, in the order a balance moves through them.
const (
	PointsStatusActive    = "active"
	PointsStatusWarning   = "warning"
	PointsStatusBuffer    = "buffer"
	PointsStatusExhausted = "exhausted"
)

// Subscription period statuses
const (
	PeriodStatusActive    = "active"
	PeriodStatusExpired   = "expired"
	PeriodStatusCancelled = "cancelled"
)

// PointsBalance is the common shape of an organization's points or a
// teacher's subscription period quota.
type PointsBalance struct {
	OwnerKind   string     `json:"owner_kind"`
	OwnerID     int64      `json:"owner_id"`
	TotalPoints int64      `json:"total_points"`
	UsedPoints  int64      `json:"used_points"`
	IsActive    bool       `json:"is_active"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type SubscriptionPeriod struct {
	ID         int64     `json:"id" db:"id"`
	TeacherID  int64     `json:"teacher_id" db:"teacher_id"`
	PlanName   string    `json:"plan_name" db:"plan_name"`
	QuotaTotal int64     `json:"quota_total" db:"quota_total"`
	QuotaUsed  int64     `json:"quota_used" db:"quota_used"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	Status     string    `json:"status" db:"status"`
}

// Balance returns the period as a points balance. A period is only usable
// while its status is active and now falls inside its window.
func (p *SubscriptionPeriod) Balance(now time.Time) *PointsBalance {
	active := p.Status == PeriodStatusActive && !now.Before(p.StartDate) && now.Before(p.EndDate)
	return &PointsBalance{
		OwnerKind:   OwnerSubscriptionPeriod,
		OwnerID:     p.ID,
		TotalPoints: p.QuotaTotal,
		UsedPoints:  p.QuotaUsed,
		IsActive:    active,
	}
}

// PointsUsageLog is an append-only record of one successful deduction.
type PointsUsageLog struct {
	ID           int64                  `json:"id" db:"id"`
	OwnerKind    string                 `json:"owner_kind" db:"owner_kind"`
	OwnerID      int64                  `json:"owner_id" db:"owner_id"`
	TeacherID    int64                  `json:"teacher_id" db:"teacher_id"`
	StudentID    *int64                 `json:"student_id,omitempty" db:"student_id"`
	AssignmentID *int64                 `json:"assignment_id,omitempty" db:"assignment_id"`
	FeatureType  string                 `json:"feature_type" db:"feature_type"`
	UnitCount    float64                `json:"unit_count" db:"unit_count"`
	UnitType     string                 `json:"unit_type" db:"unit_type"`
	PointsUsed   int64                  `json:"points_used" db:"points_used"`
	PointsBefore int64                  `json:"points_before" db:"points_before"`
	PointsAfter  int64                  `json:"points_after" db:"points_after"`
	Detail       map[string]interface{} `json:"detail,omitempty" db:"detail"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}

// PointsInfo is the reporting view of a balance.
type PointsInfo struct {
	TotalPoints     int64      `json:"total_points"`
	UsedPoints      int64      `json:"used_points"`
	RemainingPoints int64      `json:"remaining_points"`
	EffectiveLimit  int64      `json:"effective_limit"`
	BufferPoints    int64      `json:"buffer_points"`
	BufferRemaining int64      `json:"buffer_remaining"`
	UsagePercentage float64    `json:"usage_percentage"`
	Status          string     `json:"status"`
	LastUpdated     *time.Time `json:"last_updated,omitempty"`
}

// PreCheckResult is the dry-run answer for an upcoming deduction.
type PreCheckResult struct {
	Allowed         bool   `json:"allowed"`
	PointsRequired  int64  `json:"points_required"`
	PointsAvailable int64  `json:"points_available"` // Remaining before the buffer kicks in
	EffectiveLimit  int64  `json:"effective_limit"`
	UsesBuffer      bool   `json:"uses_buffer"`
	Reason          string `json:"reason,omitempty"`
}
