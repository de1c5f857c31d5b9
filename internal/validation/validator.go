package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Engine returns the shared validator. It reads the same `binding` tags gin uses
// so request structs are checked identically at the HTTP edge and in services.
func Engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(jsonFieldName)
		Register(validate)
	})
	return validate
}

// Register installs the domain validators on v
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		return IsCalendarDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock_time", func(fl validator.FieldLevel) bool {
		return IsClockTime(fl.Field().String())
	})
	_ = v.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
		return models.PaymentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("reservation_status", func(fl validator.FieldLevel) bool {
		return models.ReservationStatus(fl.Field().String()).Valid()
	})
}

// RegisterGin installs the domain validators on gin's default binding engine
func RegisterGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		Register(v)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Struct validates s and converts failures into a *errors.ValidationError
func Struct(s any) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate turns validator output into the domain validation error
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := apperrors.NewValidationError()
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "calendar_date":
		return "must be a date in YYYY-MM-DD format"
	case "clock_time":
		return "must be a time in HH:MM format"
	case "payment_type":
		return "must be one of: full, deposit, on_site"
	case "reservation_status":
		return "must be one of: confirmed, pending, cancelled"
	}
	return "is invalid"
}

// IsCalendarDate reports whether s is a real YYYY-MM-DD date
func IsCalendarDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsClockTime reports whether s is an HH:MM wall-clock time without seconds
func IsClockTime(s string) bool {
	if len(s) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// NormalizeClockTime accepts HH:MM or HH:MM:SS (as returned by Postgres TIME) and returns HH:MM
func NormalizeClockTime(s string) string {
	if len(s) >= len(TimeLayout) && IsClockTime(s[:len(TimeLayout)]) {
		return s[:len(TimeLayout)]
	}
	return s
}

// Trimmed returns nil for blank optional text
func Trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
