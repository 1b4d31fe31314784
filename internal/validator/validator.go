package validator

import (
	"errors"
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
)

// checker pairs a validator engine with its English translator.
type checker struct {
	engine *govalidator.Validate
	trans  ut.Translator
}

var (
	// std wraps Gin's binding validator and is shared with service-side validation.
	std  *checker
	once sync.Once
)

// Setup registers the validator with English translations on Gin's binding engine.
// It is safe to call more than once; only the first call has an effect.
func Setup() {
	once.Do(func() {
		std = newChecker(binding.Validator.Engine())
	})
}

// newChecker configures engine when it is a go-playground validator. Any other
// engine gets a standalone validator reading the same binding tags, so shape
// rules are never skipped.
func newChecker(engine interface{}) *checker {
	v, ok := engine.(*govalidator.Validate)
	if !ok {
		v = govalidator.New()
		v.SetTagName("binding")
	}

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	_ = v.RegisterTranslation("notblank", trans,
		func(ut ut.Translator) error {
			return ut.Add("notblank", "{0} must not be blank", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			msg, _ := ut.T("notblank", fe.Field())
			return msg
		},
	)

	return &checker{engine: v, trans: trans}
}

func (c *checker) validate(v interface{}) map[string]string {
	if err := c.engine.Struct(v); err != nil {
		return c.translate(err)
	}
	return nil
}

func (c *checker) translate(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(c.trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	Setup()
	return std.translate(err)
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	Setup()
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Validate checks the binding tags of a struct outside of a request.
// Returns nil when v is valid.
func Validate(v interface{}) map[string]string {
	Setup()
	return std.validate(v)
}
