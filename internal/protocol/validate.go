package protocol

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const MaxNameLength = 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			_, err := NormalizeName(fl.Field().String())
			return err == nil
		})
		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			stroke := sl.Current().Interface().(Stroke)
			if !stroke.Tool.Valid() {
				sl.ReportError(stroke.Tool, "Tool", "tool", "tool", "")
			}
			if !stroke.Color.Valid() {
				sl.ReportError(stroke.Color, "Color", "color", "palette", "")
			}
		}, Stroke{})
	})
	return validate
}

// ValidationError is a well-formed message with an invalid field.
type ValidationError struct {
	Type  string
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: field %s failed %s", ErrMalformed, e.Type, e.Field, e.Tag)
}

func (e *ValidationError) Unwrap() error { return ErrMalformed }

// Validate checks the static shape of a client message. Phase and role
// checks happen later in the session.
func Validate(msg ClientMessage) error {
	if err := engine().Struct(msg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Type: msg.Type(), Field: verrs[0].Field(), Tag: verrs[0].Tag()}
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformed, msg.Type(), err)
	}
	return nil
}

// KindOf maps a decode failure to the error kind reported to the client.
// A parseable message with a bad field is invalid_message, which keeps the
// connection open; anything unparseable is protocol_error.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return KindProtocolError
	}
	if verr.Type == TypeJoin {
		return KindInvalidName
	}
	return KindInvalidMessage
}

// NormalizeName trims and collapses whitespace and checks the allowed alphabet.
func NormalizeName(name string) (string, error) {
	trimmed := strings.Join(strings.Fields(name), " ")
	if trimmed == "" {
		return "", errors.New("name is required")
	}
	if len([]rune(trimmed)) > MaxNameLength {
		return "", fmt.Errorf("name must be %d characters or fewer", MaxNameLength)
	}
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ', r == '-', r == '_', r == '.':
		default:
			return "", errors.New("name contains unsupported characters")
		}
	}
	return trimmed, nil
}
