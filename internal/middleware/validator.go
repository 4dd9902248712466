package middleware

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// report JSON field names instead of Go struct names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// RequestValidator plugs the shared validator into echo's c.Validate.
type RequestValidator struct{}

func NewValidator() *RequestValidator {
	return &RequestValidator{}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return Validate.Struct(i)
}

// FieldErrors maps each failing field to its translated message.
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fieldPath(fe)] = fe.Translate(Translator)
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read "schedules[0].startTime".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
