package internal

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultRefreshBuffer = 60 * time.Second

// Settings holds the process configuration, read once from the environment at startup.
type Settings struct {
	BaseURL           string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	RefreshBuffer     time.Duration
	RetryBackoff      time.Duration
	NearbyCacheTTL    time.Duration
	TokenWarmSchedule string
	MQTTBroker        string
	MQTTUser          string
	MQTTPassword      string
	MQTTTopicPrefix   string
	LogLevel          log.Level
}

func LoadSettings() (*Settings, error) {
	s := &Settings{
		BaseURL:           strings.TrimRight(os.Getenv("PARTNER_BASE_URL"), "/"),
		TokenURL:          os.Getenv("PARTNER_TOKEN_URL"),
		ClientID:          os.Getenv("CLIENT_ID"),
		ClientSecret:      os.Getenv("CLIENT_SECRET"),
		TokenWarmSchedule: os.Getenv("TOKEN_WARM_SCHEDULE"),
		MQTTBroker:        os.Getenv("MQTT_BROKER"),
		MQTTUser:          os.Getenv("MQTT_USER"),
		MQTTPassword:      os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix:   envOrDefault("MQTT_TOPIC_PREFIX", "partner-gateway"),
	}

	if s.BaseURL == "" {
		return nil, errors.New("PARTNER_BASE_URL is not set")
	}
	if s.ClientID == "" || s.ClientSecret == "" {
		return nil, errors.New("CLIENT_ID and CLIENT_SECRET must both be set")
	}
	if s.TokenURL == "" {
		s.TokenURL = s.BaseURL + "/oauth/token"
	}

	var err error
	if s.Timeout, err = durationFromEnv("PARTNER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if s.RefreshBuffer, err = durationFromEnv("TOKEN_REFRESH_BUFFER", DefaultRefreshBuffer); err != nil {
		return nil, err
	}
	if s.RetryBackoff, err = durationFromEnv("PARTNER_RETRY_BACKOFF", 250*time.Millisecond); err != nil {
		return nil, err
	}
	if s.NearbyCacheTTL, err = durationFromEnv("NEARBY_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}

	s.LogLevel, err = log.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid LOG_LEVEL")
	}

	return s, nil
}

func envOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if d < 0 {
		return 0, errors.Newf("%s must not be negative", key)
	}
	return d, nil
}
