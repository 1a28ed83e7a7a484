package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/payone-bridge/infra/config"
)

var apiVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// CustomValidate registers plugin-specific validation rules on the shared
// validator instance.
func CustomValidate() {
	v := config.App().Validator

	// api_version must look like "3.10"
	_ = v.RegisterValidation("api_version", func(fl validator.FieldLevel) bool {
		return apiVersionPattern.MatchString(fl.Field().String())
	})
}
