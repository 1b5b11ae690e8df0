package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// TeacherClaims represents the JWT claims issued to an authenticated teacher.
type TeacherClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Name                 string `json:"name"`
	SessionID            string `json:"sid"` // Revocable login session
}

// GetTeacherID parses the teacher ID from the subject claim.
func (c *TeacherClaims) GetTeacherID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return id, nil
}
