package actions

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseRequest decodes an inbound body of the form {"action": "...", ...params}.
func ParseRequest(body []byte) (models.ActionRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.ActionRequest{}, internal.NewValidationError("Request body is required")
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return models.ActionRequest{}, internal.NewValidationError("Malformed request body")
	}

	value, exists := fields["action"]
	if !exists || value == nil {
		return models.ActionRequest{}, internal.NewValidationError("Missing action")
	}
	action, ok := value.(string)
	if !ok {
		return models.ActionRequest{}, internal.NewValidationError("Invalid action")
	}
	delete(fields, "action")

	return models.ActionRequest{Action: action, Params: fields}, nil
}
