package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/student-records/internal/model"
)

// ErrValidation is matched by every error returned from ValidateStudent.
var ErrValidation = errors.New("validation failed")

// FieldError reports the first field of a submission that failed a rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

var (
	// trans is the singleton English translator for validation errors.
	trans ut.Translator

	// records validates model.StudentInput using its `validate` tags.
	records *govalidator.Validate

	initOnce sync.Once
)

func initEngines() {
	initOnce.Do(func() {
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")

		records = govalidator.New(govalidator.WithRequiredStructEnabled())
		configure(records)
	})
}

// configure applies JSON field naming, the notblank rule and English
// translations to v.
func configure(v *govalidator.Validate) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)

	en_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("notblank", trans,
		func(ut ut.Translator) error {
			return ut.Add("notblank", "{0} must not be blank", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			msg, _ := ut.T("notblank", fe.Field())
			return msg
		},
	)
}

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	initEngines()
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		configure(v)
	}
}

// ValidateStudent checks a submission and returns its business fields.
// Fields are checked in declaration order (name, age, gender, midterm,
// final) and only the first failure is reported. Zero numbers are valid;
// only absent ones are missing.
func ValidateStudent(in model.StudentInput) (model.StudentFields, error) {
	initEngines()

	if err := records.Struct(in); err != nil {
		var ve govalidator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return model.StudentFields{}, &FieldError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Message: fe.Translate(trans),
			}
		}
		return model.StudentFields{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return model.StudentFields{
		Name:    strings.TrimSpace(*in.Name),
		Age:     *in.Age,
		Gender:  strings.TrimSpace(*in.Gender),
		Midterm: *in.Midterm,
		Final:   *in.Final,
	}, nil
}

// DecodeError converts a JSON decoding failure into a FieldError when the
// body had a value of the wrong type, so type mismatches read like any
// other validation failure.
func DecodeError(err error) *FieldError {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return &FieldError{
			Field:   ute.Field,
			Tag:     "type",
			Message: fmt.Sprintf("%s must be a %s", ute.Field, jsonKind(ute.Type)),
		}
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "whole number"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	default:
		return "value"
	}
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		fields[fe.Field] = fe.Message
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// BindQuery binds and validates the query string into dst.
// Returns nil on success or a translated field error map on failure.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
