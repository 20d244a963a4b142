package complaint

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MaxAttachments    = 5
	MaxAttachmentSize = 5 * 1024 * 1024
)

// CreateInput is the registration form payload. Title and Category are the
// older field names and are folded into Subject and Department.
type CreateInput struct {
	Name        string            `json:"name" validate:"required"`
	Email       string            `json:"email" validate:"required,email"`
	Phone       string            `json:"phone" validate:"required,phone10"`
	Department  string            `json:"department" validate:"required,department"`
	Category    string            `json:"category,omitempty" validate:"-"`
	Subject     string            `json:"subject" validate:"required"`
	Title       string            `json:"title,omitempty" validate:"-"`
	Description string            `json:"description" validate:"required"`
	Location    string            `json:"location" validate:"required"`
	Priority    string            `json:"priority,omitempty" validate:"omitempty,priority"`
	Attachments []AttachmentInput `json:"attachments" validate:"max=5,dive"`
}

type AttachmentInput struct {
	Name string `json:"name" validate:"required"`
	Size int64  `json:"size" validate:"gte=0,lte=5242880"`
	Type string `json:"type" validate:"required,oneof=image/jpeg image/png image/jpg"`
}

type FeedbackInput struct {
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Feedback string `json:"feedback" validate:"required"`
}

// ValidationError carries one message per offending field, keyed by the
// JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return len(digitsOnly(fl.Field().String())) == 10
	})
	_ = validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		_, ok := ParseDepartment(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := ParsePriority(fl.Field().String())
		return ok
	})
}

func (in *CreateInput) normalize() {
	in.Subject = strings.TrimSpace(firstNonBlank(in.Subject, in.Title))
	in.Department = strings.TrimSpace(firstNonBlank(in.Department, in.Category))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Priority = strings.TrimSpace(in.Priority)
}

// ValidateInput normalizes in place and reports every failing field.
func ValidateInput(in *CreateInput) error {
	in.normalize()
	return toValidationError(validate.Struct(in))
}

func ValidateFeedback(in *FeedbackInput) error {
	in.Feedback = strings.TrimSpace(in.Feedback)
	return toValidationError(validate.Struct(in))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fieldPath(fe)] = messageFor(fe)
	}
	return out
}

// fieldPath strips the root struct name: "CreateInput.attachments[0].size"
// becomes "attachments[0].size".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone10":
		return "must contain 10 digits"
	case "department":
		return "must be a known department"
	case "priority":
		return "must be high, medium or low"
	case "oneof":
		return "only JPG and PNG files are allowed"
	case "lte":
		return "file exceeds the 5MB limit"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "at most " + strconv.Itoa(MaxAttachments) + " files are allowed"
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// New builds a freshly registered record from validated input.
func New(in CreateInput, id string, now time.Time) Record {
	department, _ := ParseDepartment(in.Department)
	priority, _ := ParsePriority(in.Priority)
	attachments := make([]Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, Attachment{
			Name:       a.Name,
			Size:       a.Size,
			Type:       a.Type,
			UploadedAt: now.UTC(),
		})
	}
	return Normalize(Record{
		ID:             id,
		Subject:        in.Subject,
		Department:     department,
		Status:         StatusInProgress,
		RegisteredDate: now,
		Progress:       InitialProgress,
		Priority:       priority,
		Description:    in.Description,
		Location:       in.Location,
		SubmittedBy:    in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Attachments:    attachments,
	})
}
