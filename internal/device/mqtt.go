package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected = errors.New("device broker not connected")
	ErrTimeout      = errors.New("device broker timed out")
)

// Transport is the publish/subscribe channel to the device.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
}

// MQTTTransport talks to the device through an MQTT broker. Subscriptions are
// replayed after a reconnect since the session is clean.
type MQTTTransport struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler
}

var messagePubHandler mqtt.MessageHandler = func(client mqtt.Client, msg mqtt.Message) {
	log.Debug().Str("topic", msg.Topic()).Bytes("payload", msg.Payload()).Msg("unrouted mqtt message")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("mqtt connection lost")
}

func NewMQTTTransport(brokerURL, clientID string, timeout time.Duration) (*MQTTTransport, error) {
	t := &MQTTTransport{
		qos:     1,
		timeout: timeout,
		subs:    make(map[string]mqtt.MessageHandler),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetDefaultPublishHandler(messagePubHandler)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeout)
	opts.OnConnect = t.onConnect
	opts.OnConnectionLost = connectLostHandler

	t.client = mqtt.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to %s: %w", brokerURL, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("mqtt client initialized")
	return t, nil
}

func (t *MQTTTransport) onConnect(client mqtt.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for topic, handler := range t.subs {
		if token := client.Subscribe(topic, t.qos, handler); token.WaitTimeout(t.timeout) && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("failed to resubscribe")
		}
	}
	log.Info().Int("subscriptions", len(t.subs)).Msg("connected to MQTT broker")
}

func (t *MQTTTransport) Publish(topic string, payload []byte) error {
	if !t.client.IsConnected() {
		return ErrNotConnected
	}
	token := t.client.Publish(topic, t.qos, false, payload)
	if !token.WaitTimeout(t.timeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (t *MQTTTransport) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	h := func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	t.mu.Lock()
	t.subs[topic] = h
	t.mu.Unlock()

	token := t.client.Subscribe(topic, t.qos, h)
	if !token.WaitTimeout(t.timeout) {
		return fmt.Errorf("subscribe %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (t *MQTTTransport) Close() {
	t.client.Disconnect(250)
	log.Info().Msg("mqtt client disconnected")
}
