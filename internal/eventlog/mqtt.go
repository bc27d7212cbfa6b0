package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT forwards every logged event as JSON to a broker topic, in
// addition to whatever else the caller does with it. Adapted from the
// teacher's MQTTPublisher: same connect options, same QoS-1-publish
// shape, repurposed from call-event payloads to log records.
type MQTT struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
}

// MQTTOptions configures the MQTT sink.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// NewMQTT connects to broker and returns a ready-to-use sink.
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(60 * time.Second)

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", opts.Broker, err)
	}

	return &MQTT{client: client, topicPrefix: opts.TopicPrefix, qos: opts.QoS}, nil
}

type record struct {
	Severity  string `json:"severity"`
	Server    string `json:"server"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (m *MQTT) Log(severity Severity, server, message string) {
	rec := record{
		Severity:  severity.String(),
		Server:    server,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s/log/%s", m.topicPrefix, server)
	token := m.client.Publish(topic, m.qos, false, data)
	token.Wait()
}

func (m *MQTT) Close() error {
	m.client.Disconnect(1000)
	return nil
}
