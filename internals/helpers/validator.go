package helper

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator; custom tags are registered once here.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// use JSON field names in error messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 3 {
			return false
		}
		return strings.ToUpper(s) == s
	})
	return v
}
