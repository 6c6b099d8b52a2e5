package internal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxAttempts     = 2 // first attempt plus at most one retry
	maxErrorExcerpt = 256
)

// TokenSource hands out bearer tokens for partner calls.
type TokenSource interface {
	Acquire(ctx context.Context) (models.AccessToken, error)
	Invalidate()
}

// Call describes one partner resource request. Path is relative to the partner base URL.
// Retryable marks calls that are safe to repeat after a transient failure; control commands
// must leave it unset.
type Call struct {
	Method    string
	Path      string
	Query     neturl.Values
	Body      any
	Headers   http.Header
	Retryable bool
}

type PartnerClient interface {
	Request(ctx context.Context, call Call) (jsoniter.RawMessage, error)
}

type partnerManager struct {
	baseUrl      string
	tokens       TokenSource
	client       *http.Client
	retryBackoff time.Duration
}

func NewPartnerClient(baseUrl string, tokens TokenSource, client *http.Client, retryBackoff time.Duration) PartnerClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &partnerManager{
		baseUrl:      strings.TrimRight(baseUrl, "/"),
		tokens:       tokens,
		client:       client,
		retryBackoff: retryBackoff,
	}
}

func (mgr *partnerManager) Request(ctx context.Context, call Call) (jsoniter.RawMessage, error) {
	var payload []byte
	if call.Body != nil {
		var err error
		payload, err = json.Marshal(call.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}
	}

	attempts := 1
	if call.Retryable {
		attempts = maxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			partnerRetries.Inc()
			log.WithError(lastErr).Warnf("Retrying %s %s after transient failure", call.Method, call.Path)
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(mgr.retryBackoff):
			}
		}

		body, err := mgr.do(ctx, call, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (mgr *partnerManager) do(ctx context.Context, call Call, payload []byte) (jsoniter.RawMessage, error) {
	token, err := mgr.tokens.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	url := mgr.baseUrl + call.Path
	if len(call.Query) > 0 {
		url += "?" + call.Query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, values := range call.Headers {
		if http.CanonicalHeaderKey(key) == "Authorization" {
			continue
		}
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)

	log.Debugf("%s %s", call.Method, url)
	resp, err := mgr.client.Do(req)
	if err != nil {
		partnerRequests.WithLabelValues(call.Method, "error").Inc()
		return nil, &DownstreamError{Message: call.Method + " " + call.Path + " could not be completed", cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("failed to close body: %v", err)
		}
	}()
	partnerRequests.WithLabelValues(call.Method, strconv.Itoa(resp.StatusCode)).Inc()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DownstreamError{
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Message:    "failed to read response body",
			cause:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			mgr.tokens.Invalidate()
		}
		message := call.Method + " " + call.Path
		if excerpt := excerpt(bodyBytes); excerpt != "" {
			message += ": " + excerpt
		}
		return nil, &DownstreamError{Status: resp.StatusCode, StatusText: resp.Status, Message: message}
	}

	trimmed := bytes.TrimSpace(bodyBytes)
	if len(trimmed) == 0 {
		return jsoniter.RawMessage("{}"), nil
	}
	if !json.Valid(trimmed) {
		return nil, &DownstreamError{
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Message:    call.Method + " " + call.Path + " returned a non-JSON payload",
		}
	}
	return jsoniter.RawMessage(trimmed), nil
}

func isTransient(err error) bool {
	var downstreamErr *DownstreamError
	if !errors.As(err, &downstreamErr) {
		return false
	}
	switch downstreamErr.Status {
	case 0:
		return downstreamErr.cause != nil && !errors.Is(downstreamErr.cause, context.Canceled)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorExcerpt {
		return text
	}
	cut := maxErrorExcerpt
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
