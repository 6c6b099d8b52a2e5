package models

import "time"

// TokenResponse is the partner's answer to a client-credentials grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// AccessToken is the bearer token currently held by the gateway. ExpiresAt is the expiry the partner
// reported, not adjusted for any refresh buffer.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

func (t *AccessToken) ValidAt(now time.Time, buffer time.Duration) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt.Add(-buffer))
}
