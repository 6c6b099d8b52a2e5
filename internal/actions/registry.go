// Package actions maps the gateway's named operations onto authenticated partner calls.
package actions

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kofalt/go-memoize"
	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	"github.com/rm-hull/ev-partner-gateway/internal/telemetry"
	log "github.com/sirupsen/logrus"
)

type Action string

const (
	GetUser             Action = "getUser"
	GetUserVehicles     Action = "getUserVehicles"
	GetUserChargers     Action = "getUserChargers"
	FindNearbyChargers  Action = "findNearbyChargers"
	GetVehicleBattery   Action = "getVehicleBattery"
	GetChargerStatus    Action = "getChargerStatus"
	StartCharging       Action = "startCharging"
	StopCharging        Action = "stopCharging"
	SetChargingTarget   Action = "setChargingTarget"
	GetChargingSessions Action = "getChargingSessions"
)

// All lists every action the gateway accepts.
var All = []Action{
	GetUser,
	GetUserVehicles,
	GetUserChargers,
	FindNearbyChargers,
	GetVehicleBattery,
	GetChargerStatus,
	StartCharging,
	StopCharging,
	SetChargingTarget,
	GetChargingSessions,
}

// invocation performs the partner calls for one already-validated request.
type invocation func(ctx context.Context, c caller) (any, error)

// entry describes an action. bind validates the parameters and must not perform any I/O; only the
// invocation it returns may talk to the partner. Read-only actions may be retried on transient
// failures, control actions never are.
type entry struct {
	readOnly bool
	bind     func(p RequestParameters) (invocation, error)
}

var registry = map[Action]entry{
	GetUser:             {readOnly: true, bind: bindGetUser},
	GetUserVehicles:     {readOnly: true, bind: bindGetUserVehicles},
	GetUserChargers:     {readOnly: true, bind: bindGetUserChargers},
	FindNearbyChargers:  {readOnly: true, bind: bindFindNearbyChargers},
	GetVehicleBattery:   {readOnly: true, bind: bindGetVehicleBattery},
	GetChargerStatus:    {readOnly: true, bind: bindGetChargerStatus},
	StartCharging:       {readOnly: false, bind: bindChargingCommand("start")},
	StopCharging:        {readOnly: false, bind: bindChargingCommand("stop")},
	SetChargingTarget:   {readOnly: false, bind: bindSetChargingTarget},
	GetChargingSessions: {readOnly: true, bind: bindGetChargingSessions},
}

func init() {
	if len(registry) != len(All) {
		panic(fmt.Sprintf("actions: registry has %d entries but %d actions are declared", len(registry), len(All)))
	}
	for _, action := range All {
		if e, ok := registry[action]; !ok || e.bind == nil {
			panic(fmt.Sprintf("actions: no handler registered for %s", action))
		}
	}
}

// IsReadOnly reports whether the action only reads partner state.
func IsReadOnly(action Action) bool {
	return registry[action].readOnly
}

type Dispatcher struct {
	client    internal.PartnerClient
	nearby    *memoize.Memoizer
	publisher telemetry.Publisher
}

// NewDispatcher builds a dispatcher over a partner client. nearbyTTL controls how long
// findNearbyChargers results are reused; zero disables that cache. A nil publisher disables the
// telemetry mirror.
func NewDispatcher(client internal.PartnerClient, nearbyTTL time.Duration, publisher telemetry.Publisher) *Dispatcher {
	d := &Dispatcher{client: client, publisher: publisher}
	if d.publisher == nil {
		d.publisher = telemetry.Noop
	}
	if nearbyTTL > 0 {
		d.nearby = memoize.NewMemoizer(nearbyTTL, 2*nearbyTTL)
	}
	return d
}

// Dispatch validates the request against the registry and runs it. Unknown actions and bad
// parameters fail with a ValidationError before any partner call is attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ActionRequest) (any, error) {
	startTime := time.Now()
	logger := log.WithFields(log.Fields{
		"action": req.Action,
		"params": summarize(req.Params),
	})
	if requestId, ok := ctx.Value(RequestIDKey).(string); ok {
		logger = logger.WithField("request_id", requestId)
	}

	result, err := d.dispatch(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if internal.HTTPStatus(err) == http.StatusBadRequest {
			outcome = "invalid"
		}
	}
	if _, known := registry[Action(req.Action)]; known {
		internal.ActionsHandled.WithLabelValues(req.Action, outcome).Inc()
	} else {
		internal.ActionsHandled.WithLabelValues("unknown", outcome).Inc()
	}

	logger = logger.WithFields(log.Fields{"outcome": outcome, "duration": time.Since(startTime)})
	switch outcome {
	case "success":
		logger.Info("Action completed")
	case "invalid":
		logger.WithError(err).Info("Action rejected")
	default:
		logger.WithError(err).Error("Action failed")
	}

	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req models.ActionRequest) (any, error) {
	e, ok := registry[Action(req.Action)]
	if !ok {
		return nil, internal.NewValidationError("Invalid action")
	}

	invoke, err := e.bind(RequestParameters(req.Params))
	if err != nil {
		return nil, err
	}

	return invoke(ctx, caller{Dispatcher: d, retryable: e.readOnly})
}

type contextKey string

// RequestIDKey is the context key under which the HTTP layer stores its request id.
const RequestIDKey contextKey = "request_id"

// caller issues partner calls with the retry policy of the action being run.
type caller struct {
	*Dispatcher
	retryable bool
}

func (c caller) get(ctx context.Context, path string, query neturl.Values) (jsoniter.RawMessage, error) {
	return c.client.Request(ctx, internal.Call{
		Method:    http.MethodGet,
		Path:      path,
		Query:     query,
		Retryable: c.retryable,
	})
}

func (c caller) post(ctx context.Context, path string, body any) (jsoniter.RawMessage, error) {
	return c.client.Request(ctx, internal.Call{
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
		Retryable: c.retryable,
	})
}
