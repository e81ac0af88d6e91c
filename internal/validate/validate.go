// Package validate checks structs against their validate tags and reports
// failures as coded errors.
package validate

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nextstep/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"toml", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// RegisterStruct adds a struct-level rule for the given types.
func RegisterStruct(fn validator.StructLevelFunc, types ...any) {
	validate.RegisterStructValidation(fn, types...)
}

// Struct validates s and returns an error with the given code listing every
// failed field, or nil.
func Struct(s any, code errors.Code) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !stderrors.As(err, &ve) {
		return errors.Wrap(code, err, "validate")
	}
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = formatFieldError(fe)
	}
	return errors.New(code, "%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	case "startswith":
		return fmt.Sprintf("%s must start with %s", field, e.Param())
	case "required_with":
		return fmt.Sprintf("%s is required with %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the root struct name from a namespace such as
// "Config.backend.url".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
