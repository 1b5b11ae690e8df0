package services

import (
	"context"

	"lingoclass/internal/domain/models"
)

// UsageRecord describes one metered use of an AI feature.
type UsageRecord struct {
	TeacherID    int64                  `json:"teacher_id"`
	StudentID    *int64                 `json:"student_id,omitempty"`
	AssignmentID *int64                 `json:"assignment_id,omitempty"`
	FeatureType  string                 `json:"feature_type"`
	UnitCount    float64                `json:"unit_count"`
	UnitType     string                 `json:"unit_type"`
	Detail       map[string]interface{} `json:"detail,omitempty"`
}

// QuotaService applies usage to stored balances. Each deduction is one
// transaction holding the balance row lock. Deductions are not idempotent.
type QuotaService interface {
	DeductOrganization(ctx context.Context, organizationID int64, usage *UsageRecord) (*models.PointsUsageLog, error)
	DeductSubscription(ctx context.Context, teacherID int64, usage *UsageRecord) (*models.PointsUsageLog, error)

	// CheckOrganization is a buffer-aware dry run; nothing is written.
	CheckOrganization(ctx context.Context, organizationID int64, unitCount float64, unitType string) (*models.PreCheckResult, error)

	OrganizationPointsInfo(ctx context.Context, organizationID int64) (*models.PointsInfo, error)
	SubscriptionPointsInfo(ctx context.Context, teacherID int64) (*models.PointsInfo, error)
	ListOrganizationLogs(ctx context.Context, organizationID int64, limit, offset int) ([]models.PointsUsageLog, int, error)
}

// DeductPointsRequest is the API shape of a usage deduction. When
// OrganizationID is set the organization is charged, otherwise the
// teacher's active subscription period.
type DeductPointsRequest struct {
	OrganizationID *int64                 `json:"organization_id,omitempty"`
	StudentID      *int64                 `json:"student_id,omitempty"`
	AssignmentID   *int64                 `json:"assignment_id,omitempty"`
	FeatureType    string                 `json:"feature_type"`
	UnitCount      float64                `json:"unit_count"`
	UnitType       string                 `json:"unit_type"`
	Detail         map[string]interface{} `json:"detail,omitempty"`
}

// CheckPointsRequest asks whether a usage would currently be accepted
type CheckPointsRequest struct {
	UnitCount float64 `json:"unit_count"`
	UnitType  string  `json:"unit_type"`
}

// UsageService authorizes and routes usage to the right balance.
type UsageService interface {
	Deduct(ctx context.Context, teacher *models.Teacher, req *DeductPointsRequest) (*models.PointsUsageLog, error)
	CheckOrganization(ctx context.Context, teacher *models.Teacher, organizationID int64, req *CheckPointsRequest) (*models.PreCheckResult, error)
	OrganizationPoints(ctx context.Context, teacher *models.Teacher, organizationID int64) (*models.PointsInfo, error)
	OrganizationLogs(ctx context.Context, teacher *models.Teacher, organizationID int64, limit, offset int) ([]models.PointsUsageLog, int, error)
	TeacherQuota(ctx context.Context, teacher *models.Teacher) (*models.PointsInfo, error)
}
