package service

import (
	"errors"
	"strings"

	"lingoclass/internal/domain"
	"lingoclass/internal/domain/models"
)

// denied turns a refusal into the error handlers map to 403.
func denied(d models.Decision) error {
	return &domain.AccessDeniedError{Reason: d.Reason}
}

// notBlank rejects strings that are empty after trimming. Nil pointers pass;
// pair with validation.Required where the field is mandatory.
func notBlank(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return errors.New("must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// trimmed returns a trimmed copy of an optional string.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
