package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
	"lingoclass/internal/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTeacher = &models.Teacher{ID: 7, Email: "t@example.com", Name: "T", IsActive: true}

// asTeacher mimics the auth middleware
func asTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &models.TeacherClaims{SessionID: "sess-1"}
		claims.Subject = "7"
		next.ServeHTTP(w, httputil.WithTeacher(r, testTeacher, claims))
	})
}

type fakeProgramService struct {
	services.ProgramService
	program   *models.Program
	err       error
	gotID     int64
	gotUpdate *services.UpdateProgramRequest
}

func (f *fakeProgramService) GetProgram(_ context.Context, _ *models.Teacher, id int64) (*models.Program, error) {
	f.gotID = id
	return f.program, f.err
}

func (f *fakeProgramService) UpdateProgram(_ context.Context, _ *models.Teacher, id int64, req *services.UpdateProgramRequest) (*models.Program, error) {
	f.gotID = id
	f.gotUpdate = req
	return f.program, f.err
}

func (f *fakeProgramService) DeleteProgram(_ context.Context, _ *models.Teacher, id int64) error {
	f.gotID = id
	return f.err
}

type fakeClassroomService struct {
	services.ClassroomService
	schoolID    int64
	classroomID int64
	err         error
}

func (f *fakeClassroomService) CreateSchoolStudent(_ context.Context, _ *models.Teacher, schoolID, classroomID int64, req *services.CreateStudentRequest) (*models.Student, error) {
	f.schoolID, f.classroomID = schoolID, classroomID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: 1, Name: req.Name, ClassroomID: classroomID, IsActive: true}, nil
}

func (f *fakeClassroomService) DeleteClassroom(_ context.Context, _ *models.Teacher, classroomID int64) error {
	f.classroomID = classroomID
	return f.err
}

type fakeUsageService struct {
	services.UsageService
	deduct *services.DeductPointsRequest
	limit  int
	offset int
	err    error
}

func (f *fakeUsageService) Deduct(_ context.Context, teacher *models.Teacher, req *services.DeductPointsRequest) (*models.PointsUsageLog, error) {
	f.deduct = req
	if f.err != nil {
		return nil, f.err
	}
	kind := models.OwnerSubscriptionPeriod
	if req.OrganizationID != nil {
		kind = models.OwnerOrganization
	}
	return &models.PointsUsageLog{ID: 99, OwnerKind: kind, TeacherID: teacher.ID, PointsUsed: 30}, nil
}

func (f *fakeUsageService) OrganizationLogs(_ context.Context, _ *models.Teacher, _ int64, limit, offset int) ([]models.PointsUsageLog, int, error) {
	f.limit, f.offset = limit, offset
	return []models.PointsUsageLog{{ID: 1}}, 41, f.err
}

type fakeSessionStore struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeSessionStore) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Duration{}
	}
	f.revoked[sessionID] = ttl
	return nil
}

func (f *fakeSessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	_, ok := f.revoked[sessionID]
	return ok, f.err
}
