package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a backend record identifier (path segment).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Password only checks presence and a sane upper bound; strength rules belong to the backend.
func Password(s string) bool {
	return s != "" && len(s) <= 128
}

// DraftFields are the draft values checked before a product is sent to the backend.
// Empty values pass; the backend owns required-field rules.
type DraftFields struct {
	Title    string `validate:"max=200"`
	Price    string `validate:"omitempty,numeric"`
	Category string `validate:"omitempty,oneof=men women"`
}

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() { v = validator.New(validator.WithRequiredStructEnabled()) })
	return v
}

// Draft returns a display message for the first failing field, or "" when valid.
func Draft(f DraftFields) string {
	f.Price = strings.TrimSpace(f.Price)
	err := engine().Struct(f)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Price":
		return "Price must be a number."
	case "Category":
		return "Category must be one of: men, women."
	default:
		return fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag())
	}
}
