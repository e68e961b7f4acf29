package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"campus-portal/internal/domain"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	personNameTag   = "person_name"
	personNameText  = "{0} may only contain letters, spaces, apostrophes, dots and hyphens"
	personNameRegex = regexp.MustCompile(`^\p{L}[\p{L}\s'.\-]*$`)

	studentNoTag   = "student_no"
	studentNoText  = "{0} must be 4-20 uppercase letters, digits or hyphens"
	studentNoRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{3,19}$`)

	semesterTermTag  = "semester_term"
	semesterTermText = "{0} must be one of fall, spring, summer, winter"

	requiredTag  = "required"
	requiredText = "this field is required"
)

// Validator checks request and response payloads against their struct tags.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	defaultValidator *Validator
	once             sync.Once
)

// Default returns the process-wide validator.
func Default() *Validator {
	once.Do(func() {
		defaultValidator = NewValidator()
	})
	return defaultValidator
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate, translator: translator}

	_ = validate.RegisterValidation(personNameTag, regexValidation(personNameRegex))
	v.registerTranslation(personNameTag, personNameText, false)

	_ = validate.RegisterValidation(studentNoTag, regexValidation(studentNoRegex))
	v.registerTranslation(studentNoTag, studentNoText, false)

	_ = validate.RegisterValidation(semesterTermTag, semesterTermValidation)
	v.registerTranslation(semesterTermTag, semesterTermText, false)

	v.registerTranslation(requiredTag, requiredText, true)

	return v
}

// registerTranslation registers a custom translation for the specified validation tag.
func (v *Validator) registerTranslation(tag, text string, override bool) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns domain.ValidationErrors when any rule fails.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInternalError("validation could not run", err)
	}
	return v.translate(fieldErrs)
}

// Var validates a single value, naming it field in the resulting errors.
func (v *Validator) Var(field string, value interface{}, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInternalError("validation could not run", err)
	}
	out := v.translate(fieldErrs)
	for i := range out {
		out[i].Field = field
		msg := strings.TrimSpace(out[i].Message)
		if !strings.HasPrefix(msg, "this field") {
			msg = field + " " + msg
		}
		out[i].Message = msg
	}
	return out
}

func (v *Validator) translate(fieldErrs validator.ValidationErrors) domain.ValidationErrors {
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.ValidationError{
			Field:   fe.Field(),
			Code:    codeForTag(fe.Tag()),
			Message: fe.Translate(v.translator),
			Value:   safeValue(fe),
		})
	}
	return out
}

func codeForTag(tag string) domain.ErrorCode {
	switch tag {
	case "required", "required_with", "required_if":
		return domain.CodeMissingField
	case "min", "max", "gt", "gte", "lt", "lte", "len":
		return domain.CodeOutOfRange
	default:
		return domain.CodeInvalidFormat
	}
}

// safeValue keeps scalar values only; composite values are not echoed back.
func safeValue(fe validator.FieldError) interface{} {
	switch fe.Kind() {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		if fe.Tag() == "required" {
			return nil
		}
		return fe.Value()
	default:
		return nil
	}
}

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func semesterTermValidation(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case domain.TermFall, domain.TermSpring, domain.TermSummer, domain.TermWinter:
		return true
	}
	return false
}
