package models

// ActionRequest is one inbound call: the action name plus its flat, top-level parameters.
type ActionRequest struct {
	Action string
	Params map[string]any
}

// Envelope wraps every 200 and 500 response from the gateway.
type Envelope struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
	UseMockData bool   `json:"useMockData,omitempty"`
}
