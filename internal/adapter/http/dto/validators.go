package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// configIDRe matches "<merchantId>#<paymentMethodId>".
var configIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+#[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("config_id", validateConfigID)
	}
}

func validateConfigID(fl validator.FieldLevel) bool {
	return configIDRe.MatchString(fl.Field().String())
}

// TrimStrings trims surrounding whitespace from every exported string field
// of a struct pointer, descending into nested structs and slices of structs.
func TrimStrings(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}
	trimFields(rv.Elem())
}

func trimFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Struct:
			trimFields(f)
		case reflect.Slice:
			if f.Type().Elem().Kind() != reflect.Struct {
				continue
			}
			for j := 0; j < f.Len(); j++ {
				trimFields(f.Index(j))
			}
		}
	}
}
