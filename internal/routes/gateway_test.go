package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	jsoniter "github.com/json-iterator/go"
	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/actions"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenURL = "https://partner.test/oauth/token"
	baseURL  = "https://partner.test/v1"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fakeDispatcher struct {
	calls    int
	lastReq  models.ActionRequest
	lastCtx  context.Context
	response any
	err      error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req models.ActionRequest) (any, error) {
	f.calls++
	f.lastReq = req
	f.lastCtx = ctx
	return f.response, f.err
}

func newRouter(dispatcher ActionDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/partner", CORS(), RequestID())
	group.Any("", Gateway(dispatcher))
	return r
}

func perform(r http.Handler, method, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/partner", nil)
	} else {
		req = httptest.NewRequest(method, "/api/partner", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestPreflight(t *testing.T) {
	for _, body := range []string{"", `{"action":"getUser"}`, "not json"} {
		dispatcher := &fakeDispatcher{}
		w := perform(newRouter(dispatcher), http.MethodOptions, body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assertCORS(t, w)
		assert.Equal(t, 0, dispatcher.calls)
	}
}

func TestGatewaySuccess(t *testing.T) {
	dispatcher := &fakeDispatcher{response: map[string]any{"level": 72}}
	w := perform(newRouter(dispatcher), http.MethodPost, `{"action":"getVehicleBattery","vehicleId":"veh_1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"level":72}}`, w.Body.String())
	assertCORS(t, w)

	assert.Equal(t, "getVehicleBattery", dispatcher.lastReq.Action)
	assert.Equal(t, map[string]any{"vehicleId": "veh_1"}, dispatcher.lastReq.Params)

	requestId, ok := dispatcher.lastCtx.Value(actions.RequestIDKey).(string)
	require.True(t, ok)
	assert.Equal(t, w.Header().Get("X-Request-Id"), requestId)
	_, err := uuid.Parse(requestId)
	assert.NoError(t, err)
}

func TestGatewayAcceptsAnyMethod(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		dispatcher := &fakeDispatcher{response: true}
		w := perform(newRouter(dispatcher), method, `{"action":"startCharging","chargerId":"c1"}`)

		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.JSONEq(t, `{"success":true,"data":true}`, w.Body.String())
	}
}

func TestGatewayReusesCallerRequestId(t *testing.T) {
	id := uuid.NewString()
	dispatcher := &fakeDispatcher{response: true}

	req := httptest.NewRequest(http.MethodPost, "/api/partner", strings.NewReader(`{"action":"stopCharging","chargerId":"c1"}`))
	req.Header.Set("X-Request-Id", id)
	w := httptest.NewRecorder()
	newRouter(dispatcher).ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get("X-Request-Id"))
	assert.Equal(t, id, dispatcher.lastCtx.Value(actions.RequestIDKey))
}

func TestGatewayBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"Missing body", "", `{"error":"Request body is required"}`},
		{"Malformed body", `{"action":`, `{"error":"Malformed request body"}`},
		{"Missing action", `{"userId":"u1"}`, `{"error":"Missing action"}`},
		{"Non-string action", `{"action":true}`, `{"error":"Invalid action"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			w := perform(newRouter(dispatcher), http.MethodPost, test.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, test.expected, w.Body.String())
			assertCORS(t, w)
			assert.Equal(t, 0, dispatcher.calls)
		})
	}
}

func TestGatewayDispatchErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			"Validation",
			internal.NewValidationError("Missing required parameter: userId"),
			http.StatusBadRequest,
			`{"error":"Missing required parameter: userId"}`,
		},
		{
			"Auth",
			&internal.AuthError{Message: "token endpoint responded with 401 Unauthorized"},
			http.StatusInternalServerError,
			`{"success":false,"error":"partner authentication failed: token endpoint responded with 401 Unauthorized","useMockData":true}`,
		},
		{
			"Downstream",
			&internal.DownstreamError{Status: 503, StatusText: "503 Service Unavailable", Message: "GET /chargers/c1/status"},
			http.StatusInternalServerError,
			`{"success":false,"error":"partner responded with 503 Service Unavailable: GET /chargers/c1/status","useMockData":true}`,
		},
		{
			"Unexpected",
			context.DeadlineExceeded,
			http.StatusInternalServerError,
			`{"success":false,"error":"An internal server error occurred","useMockData":true}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := perform(newRouter(&fakeDispatcher{err: test.err}), http.MethodPost, `{"action":"getUser","userId":"u1"}`)

			assert.Equal(t, test.expectedStatus, w.Code)
			assert.JSONEq(t, test.expectedBody, w.Body.String())
			assertCORS(t, w)
		})
	}
}

func newPartnerRouter(t *testing.T) (*gin.Engine, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	httpClient := &http.Client{Transport: transport}
	tokens := internal.NewTokenCache(httpClient, tokenURL, "client-id", "client-secret", internal.DefaultRefreshBuffer)
	client := internal.NewPartnerClient(baseURL, tokens, httpClient, time.Millisecond)
	return newRouter(actions.NewDispatcher(client, 0, nil)), transport
}

func TestVehicleBatteryEndToEnd(t *testing.T) {
	r, transport := newPartnerRouter(t)

	var authorization string
	transport.RegisterResponder(http.MethodPost, tokenURL,
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"tok-abc","token_type":"Bearer","expires_in":3600}`))
	transport.RegisterResponder(http.MethodGet, baseURL+"/vehicles/veh_1/battery", func(req *http.Request) (*http.Response, error) {
		authorization = req.Header.Get("Authorization")
		return httpmock.NewStringResponse(http.StatusOK,
			`{"level":72,"range":210,"isCharging":false,"isPluggedIn":true,"lastUpdated":"2024-01-01T00:00:00Z","cellTemps":[31,32]}`), nil
	})

	w := perform(r, http.MethodPost, `{"action":"getVehicleBattery","vehicleId":"veh_1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"data":{"level":72,"range":210,"isCharging":false,"isPluggedIn":true,"lastUpdated":"2024-01-01T00:00:00Z"}}`,
		w.Body.String())
	assert.Equal(t, "Bearer tok-abc", authorization)
	assert.NotContains(t, w.Body.String(), "tok-abc")
	assertCORS(t, w)
}

func TestTokenRejectionEndToEnd(t *testing.T) {
	r, transport := newPartnerRouter(t)
	transport.RegisterResponder(http.MethodPost, tokenURL,
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"invalid_client"}`))

	w := perform(r, http.MethodPost, `{"action":"getChargerStatus","chargerId":"c1"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["useMockData"])
	assert.Contains(t, body["error"], "partner authentication failed")
	assert.NotContains(t, w.Body.String(), "client-secret")
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestInvalidActionEndToEnd(t *testing.T) {
	r, transport := newPartnerRouter(t)

	w := perform(r, http.MethodPost, `{"action":"bogus"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid action"}`, w.Body.String())
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestGatewayDetachesFromClientCancellation(t *testing.T) {
	dispatcher := &fakeDispatcher{response: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/partner", strings.NewReader(`{"action":"startCharging","chargerId":"c1"}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	newRouter(dispatcher).ServeHTTP(w, req)

	require.Equal(t, 1, dispatcher.calls)
	assert.NoError(t, dispatcher.lastCtx.Err())
	assert.NotNil(t, dispatcher.lastCtx.Value(actions.RequestIDKey))
}

func TestControlCommandCompletesAfterClientGoesAway(t *testing.T) {
	r, transport := newPartnerRouter(t)
	transport.RegisterResponder(http.MethodPost, tokenURL,
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"tok","expires_in":3600}`))

	starts := 0
	var partnerCtxErr error
	transport.RegisterResponder(http.MethodPost, baseURL+"/chargers/c1/start", func(req *http.Request) (*http.Response, error) {
		starts++
		partnerCtxErr = req.Context().Err()
		return httpmock.NewStringResponse(http.StatusOK, `{"success":true}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/partner", strings.NewReader(`{"action":"startCharging","chargerId":"c1"}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 1, starts)
	assert.NoError(t, partnerCtxErr)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":true}`, w.Body.String())
}

func TestEnvelopeFor(t *testing.T) {
	status, body := EnvelopeFor(internal.NewValidationError("Invalid action"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, gin.H{"error": "Invalid action"}, body)

	status, body = EnvelopeFor(&internal.DownstreamError{Status: 404, StatusText: "404 Not Found", Message: "GET /users/u1"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, models.Envelope{
		Success:     false,
		Error:       "partner responded with 404 Not Found: GET /users/u1",
		UseMockData: true,
	}, body)
}
