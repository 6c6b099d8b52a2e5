package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithoutBroker(t *testing.T) {
	p, err := Connect("gateway", "", "", "", "prefix")
	require.NoError(t, err)
	assert.Equal(t, Noop, p)

	assert.NotPanics(t, func() { p.Publish("vehicles/veh_1/battery", map[string]int{"level": 72}) })
	assert.NotPanics(t, p.Close)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "partner-gateway/vehicles/veh_1/battery", Topic("partner-gateway", "vehicles/veh_1/battery"))
	assert.Equal(t, "partner-gateway/chargers/c1/status", Topic("partner-gateway/", "/chargers/c1/status"))
	assert.Equal(t, "chargers/c1/status", Topic("", "chargers/c1/status"))
}

func TestCreateClientOptions(t *testing.T) {
	opts := createClientOptions("gateway", "broker.local", "user", "pass")
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://broker.local:1883", opts.Servers[0].String())
	assert.Equal(t, "gateway", opts.ClientID)
	assert.Equal(t, "user", opts.Username)

	opts = createClientOptions("gateway", "ssl://broker.local:8883", "", "")
	assert.Equal(t, "ssl://broker.local:8883", opts.Servers[0].String())
}
