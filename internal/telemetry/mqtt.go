// Package telemetry mirrors vehicle and charger snapshots fetched through the gateway onto an MQTT
// broker, for home-automation consumers that would otherwise poll the partner themselves.
package telemetry

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const publishTimeout = 3 * time.Second

// Publisher receives snapshots after a successful read. Implementations must not block the caller.
type Publisher interface {
	Publish(topic string, payload any)
	Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

func (noopPublisher) Close() {}

// Noop is used when no broker is configured.
var Noop Publisher = noopPublisher{}

type mqttPublisher struct {
	client mqtt.Client
	prefix string
}

// Connect dials the broker and returns a Publisher. An empty broker address yields Noop.
func Connect(clientId, broker, user, pass, prefix string) (Publisher, error) {
	if broker == "" {
		return Noop, nil
	}

	opts := createClientOptions(clientId, broker, user, pass)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}

	log.Infof("Connected to MQTT broker %s, publishing under %s/", broker, prefix)
	return &mqttPublisher{client: client, prefix: strings.TrimRight(prefix, "/")}, nil
}

func createClientOptions(clientId, broker, user, pass string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	if !strings.Contains(broker, "://") {
		broker = fmt.Sprintf("tcp://%s:%d", broker, 1883)
	}
	opts.AddBroker(broker)
	opts.SetUsername(user)
	opts.SetPassword(pass)
	opts.SetClientID(clientId)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(onConnectionLost)
	return opts
}

func onConnectionLost(_ mqtt.Client, err error) {
	log.Warnf("MQTT connection lost, will reconnect: %v", err)
}

// Publish sends the payload as JSON, at QoS 1 and not retained. Delivery happens in the background;
// failures are logged and otherwise ignored.
func (p *mqttPublisher) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warnf("failed to marshal telemetry for %s: %v", topic, err)
		return
	}

	fullTopic := Topic(p.prefix, topic)
	token := p.client.Publish(fullTopic, 1, false, data)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Warnf("timed out publishing telemetry to %s", fullTopic)
			return
		}
		if err := token.Error(); err != nil {
			log.Warnf("failed to publish telemetry to %s: %v", fullTopic, err)
		}
	}()
}

// Close waits briefly for in-flight publishes and disconnects from the broker.
func (p *mqttPublisher) Close() {
	log.Info("Disconnecting from MQTT broker")
	p.client.Disconnect(250)
}

// Topic joins the configured prefix and a relative topic.
func Topic(prefix, topic string) string {
	prefix = strings.TrimRight(prefix, "/")
	topic = strings.TrimLeft(topic, "/")
	if prefix == "" {
		return topic
	}
	return prefix + "/" + topic
}
