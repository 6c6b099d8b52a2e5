package cmd

import (
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/rm-hull/godx"
	log "github.com/sirupsen/logrus"

	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/actions"
	"github.com/rm-hull/ev-partner-gateway/internal/telemetry"
)

type gateway struct {
	settings   *internal.Settings
	tokens     *internal.TokenCache
	dispatcher *actions.Dispatcher
	publisher  telemetry.Publisher
}

// Close releases the connections opened by bootstrap.
func (gw *gateway) Close() {
	gw.publisher.Close()
}

// bootstrap initialises shared resources used by both the API server and the call command. No
// partner call is made here: the token is fetched lazily on first use.
func bootstrap() (*gateway, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// No godx.EnvironmentVars(): it would print CLIENT_SECRET.
	godx.GitVersion()
	godx.UserInfo()

	settings, err := internal.LoadSettings()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	log.SetLevel(settings.LogLevel)

	httpClient := &http.Client{Timeout: settings.Timeout}
	tokens := internal.NewTokenCache(httpClient, settings.TokenURL, settings.ClientID, settings.ClientSecret, settings.RefreshBuffer)
	client := internal.NewPartnerClient(settings.BaseURL, tokens, httpClient, settings.RetryBackoff)

	publisher, err := telemetry.Connect("partner-gateway", settings.MQTTBroker, settings.MQTTUser, settings.MQTTPassword, settings.MQTTTopicPrefix)
	if err != nil {
		log.Warnf("Telemetry mirror disabled: %v", err)
		publisher = telemetry.Noop
	}

	return &gateway{
		settings:   settings,
		tokens:     tokens,
		dispatcher: actions.NewDispatcher(client, settings.NearbyCacheTTL, publisher),
		publisher:  publisher,
	}, nil
}
