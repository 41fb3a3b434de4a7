package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err := v.RegisterValidation("handle", handleValidator)
		if err != nil {
			log.Fatal("register handle validator failed")
		}
	}
}

// Handles on both supported platforms are short alphanumeric names,
// dots/underscores/dashes allowed.
var handleValidator validator.Func = func(fl validator.FieldLevel) bool {
	handle := fl.Field().String()
	pattern := `^[A-Za-z0-9_.-]{2,24}$`
	matched, err := regexp.MatchString(pattern, handle)
	if err != nil {
		return false
	}
	return matched
}
