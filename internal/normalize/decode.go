package normalize

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/rm-hull/ev-partner-gateway/internal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func decode[T any](raw jsoniter.RawMessage, what string) (*T, error) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, internal.NewPayloadError(fmt.Sprintf("invalid %s payload", what), err)
	}
	if err := check(&value, what); err != nil {
		return nil, err
	}
	return &value, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the array in "data".
func decodeList[T any](raw jsoniter.RawMessage, what string) ([]T, error) {
	var items []T
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, internal.NewPayloadError(fmt.Sprintf("invalid %s list payload", what), err)
		}
	} else {
		var wrapped struct {
			Data *[]T `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, internal.NewPayloadError(fmt.Sprintf("invalid %s list payload", what), err)
		}
		if wrapped.Data == nil {
			return nil, internal.NewPayloadError(fmt.Sprintf("invalid %s list payload: expected an array", what), nil)
		}
		items = *wrapped.Data
	}

	for i := range items {
		if err := check(&items[i], fmt.Sprintf("%s[%d]", what, i)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func check(value any, what string) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internal.NewPayloadError(fmt.Sprintf("invalid %s payload", what), err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return internal.NewPayloadError(
		fmt.Sprintf("invalid %s payload: missing required field(s): %s", what, strings.Join(fields, ", ")), nil)
}
