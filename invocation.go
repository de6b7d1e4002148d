package prewarm

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Invocation is the event that triggers one warm run.
//
// Its JSON form is the payload a function trigger delivers:
//
//	{"filename": "/test/example.jpg", "cloudfront_url": "example.cloudfront.net"}
type Invocation struct {
	// Filename is the resource path to warm. It should begin with "/".
	Filename string `json:"filename" validate:"required"`

	// CloudFrontURL is the distribution's public hostname. The distribution
	// ID is everything before its first ".".
	CloudFrontURL string `json:"cloudfront_url" validate:"required"`
}

// Response is the result of an invocation.
//
// StatusCode is 200 once every node has been attempted, 400 when required
// parameters are missing and 500 when setup fails. A 200 does not mean any
// node warmed successfully; see Summary for per-batch counts.
type Response struct {
	StatusCode   int      `json:"statusCode"`
	Body         string   `json:"body"`
	InvocationID string   `json:"invocation_id,omitempty"`
	Summary      *Summary `json:"summary,omitempty"`
}

// MissingParameterError reports required invocation fields that were absent
// or empty.
type MissingParameterError struct {
	// Fields lists the JSON names of the missing fields.
	Fields []string

	// Messages holds one human-readable message per missing field.
	Messages []string
}

func (e *MissingParameterError) Error() string {
	return "missing required parameters: " + strings.Join(e.Fields, ", ")
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator
)

// invocationValidator returns the shared validator, reporting fields by their
// JSON names with English messages.
func invocationValidator() (*validator.Validate, ut.Translator) {
	validatorOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	})
	return validate, translator
}

// Validate checks that both required fields are present and non-empty.
//
// It returns a *[MissingParameterError] naming every missing field. This is
// the only validation an invocation receives; a hostname without a "." is
// accepted and used whole as the distribution ID.
func (inv Invocation) Validate() error {
	v, trans := invocationValidator()

	err := v.Struct(inv)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	missing := &MissingParameterError{}
	for _, fe := range verrs {
		missing.Fields = append(missing.Fields, fe.Field())
		missing.Messages = append(missing.Messages, fe.Translate(trans))
	}
	return missing
}

// DistributionID returns the distribution identifier derived from CloudFrontURL.
func (inv Invocation) DistributionID() string {
	return DistributionID(inv.CloudFrontURL)
}
