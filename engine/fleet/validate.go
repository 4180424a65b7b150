package fleet

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("shift", func(fl validator.FieldLevel) bool {
			return Shift(fl.Field().String()).Valid()
		}); err != nil {
			panic(fmt.Sprintf("fleet: registering shift validator: %v", err))
		}
		validate = v
	})
	return validate
}

// ValidationError maps JSON field names to Spanish messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// UserMessage lets the controller show validation failures verbatim.
func (e *ValidationError) UserMessage() string {
	return e.Error()
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateStruct runs the struct-tag rules of a record.
func ValidateStruct(record any) *ValidationError {
	verr := &ValidationError{}
	err := getValidator().Struct(record)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "gt":
		return "es obligatorio"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return "debe ser mayor o igual a " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener como máximo %s caracteres", fe.Param())
		}
		return "debe ser menor o igual a " + fe.Param()
	case "shift":
		return "debe ser MAÑANA, TARDE o NOCHE"
	default:
		return "no es válido"
	}
}
