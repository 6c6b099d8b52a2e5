package cmd

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/ev-partner-gateway/internal/actions"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	"github.com/rm-hull/ev-partner-gateway/internal/routes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Call runs a single action against the partner and writes the response envelope to out, exactly as
// the HTTP endpoint would have produced it.
func Call(out io.Writer, action string, paramsJSON string) error {
	body := map[string]any{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &body); err != nil {
			return fmt.Errorf("params must be a JSON object: %w", err)
		}
	}
	body["action"] = action

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := actions.ParseRequest(raw)
	if err != nil {
		return err
	}

	gw, err := bootstrap()
	if err != nil {
		return err
	}
	defer gw.Close()

	var envelope any
	data, dispatchErr := gw.dispatcher.Dispatch(context.Background(), req)
	if dispatchErr != nil {
		_, envelope = routes.EnvelopeFor(dispatchErr)
	} else {
		envelope = models.Envelope{Success: true, Data: data}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if dispatchErr != nil {
		return fmt.Errorf("%s failed", action)
	}
	return nil
}
