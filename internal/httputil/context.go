package httputil

import (
	"context"
	"net/http"

	"lingoclass/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	teacherKey   contextKey = "teacher"
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "requestID"
)

// WithTeacher adds the authenticated teacher and their token claims to the request context
func WithTeacher(r *http.Request, teacher *models.Teacher, claims *models.TeacherClaims) *http.Request {
	ctx := context.WithValue(r.Context(), teacherKey, teacher)
	ctx = context.WithValue(ctx, claimsKey, claims)
	return r.WithContext(ctx)
}

// GetTeacher retrieves the authenticated teacher, or nil on public routes
func GetTeacher(r *http.Request) *models.Teacher {
	teacher, _ := r.Context().Value(teacherKey).(*models.Teacher)
	return teacher
}

// GetClaims retrieves the verified token claims
func GetClaims(r *http.Request) *models.TeacherClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.TeacherClaims)
	return claims
}

// WithRequestID tags the request for log correlation
func WithRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
}

// GetRequestID returns the request ID, or empty string if not set
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
