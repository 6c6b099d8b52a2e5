package actions

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rm-hull/ev-partner-gateway/internal"
)

// RequestParameters are the flat, top-level fields of an inbound request, minus "action".
type RequestParameters map[string]any

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

func missingParamError(key string) error {
	return internal.NewValidationError("Missing required parameter: %s", key)
}

func invalidParamError(key, expected string) error {
	return internal.NewValidationError("Invalid parameter %s: expected %s", key, expected)
}

func (p RequestParameters) getString(key string, required bool) (string, error) {
	value, exists := p[key]
	if exists && value != nil {
		if strValue, isString := value.(string); isString {
			if strValue != "" || !required {
				return strValue, nil
			}
			return "", missingParamError(key)
		}
		return "", invalidParamError(key, "a string")
	}

	if !required {
		return "", nil
	}

	return "", missingParamError(key)
}

func (p RequestParameters) getNumber(key string, required bool, fallback float64) (float64, error) {
	value, exists := p[key]
	if exists && value != nil {
		if num, isFloat64 := value.(float64); isFloat64 {
			return num, nil
		}
		return 0, invalidParamError(key, "a number")
	}

	if !required {
		return fallback, nil
	}

	return 0, missingParamError(key)
}

func (p RequestParameters) getInteger(key string, required bool, fallback int) (int, error) {
	value, exists := p[key]
	if exists && value != nil {
		num, isFloat64 := value.(float64)
		if !isFloat64 || num != math.Trunc(num) || math.Abs(num) > math.MaxInt32 {
			return 0, invalidParamError(key, "an integer")
		}
		return int(num), nil
	}

	if !required {
		return fallback, nil
	}

	return 0, missingParamError(key)
}

// check runs the validator over a bound parameter struct and turns the first failure into a
// ValidationError naming the parameter.
func check(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return internal.NewValidationError("Invalid parameters")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return missingParamError(fe.Field())
	case "latitude":
		return internal.NewValidationError("Invalid parameter %s: must be between -90 and 90", fe.Field())
	case "longitude":
		return internal.NewValidationError("Invalid parameter %s: must be between -180 and 180", fe.Field())
	case "gt":
		return internal.NewValidationError("Invalid parameter %s: must be greater than %s", fe.Field(), fe.Param())
	case "min":
		return internal.NewValidationError("Invalid parameter %s: must be at least %s", fe.Field(), fe.Param())
	case "max":
		return internal.NewValidationError("Invalid parameter %s: must be at most %s", fe.Field(), fe.Param())
	default:
		return internal.NewValidationError("Invalid parameter %s", fe.Field())
	}
}

const maxLoggedValue = 32

var sensitiveKeys = []string{"secret", "token", "password", "authorization", "apikey", "api_key"}

// summarize renders parameters for logging. Values under keys that look like credentials are
// replaced, and long strings are cut short.
func summarize(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+summarizeValue(key, params[key]))
	}
	return strings.Join(parts, " ")
}

func summarizeValue(key string, value any) string {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return "[REDACTED]"
		}
	}

	switch v := value.(type) {
	case string:
		if len(v) > maxLoggedValue {
			v = v[:maxLoggedValue] + "..."
		}
		return fmt.Sprintf("%q", v)
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(v))
	case []any:
		return fmt.Sprintf("[%d items]", len(v))
	default:
		return fmt.Sprint(v)
	}
}
