package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// extRefPattern bounds caller-supplied external references (account and
// transaction ids). They are opaque to the ledger but must stay printable
// and index-friendly.
var extRefPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,254}$`)

// RegisterValidators installs custom binding validations on gin's validator
// engine. Call once at startup, before routes are served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("extref", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			// Let required/omitempty tags decide whether empty is allowed.
			return true
		}
		return extRefPattern.MatchString(str)
	})
}
