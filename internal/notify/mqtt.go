// Package notify mirrors dashboard state onto an MQTT topic.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
)

type Config struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

// Publisher publishes every distinct dashboard view, retained, to one topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	// send is swapped out in tests.
	send func(payload []byte) error
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{topic: cfg.Topic, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	p.send = p.publish
	return p
}

// Connect waits for the initial connection while respecting ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Run publishes states until the channel closes or ctx is done. Consecutive
// identical views are published once.
func (p *Publisher) Run(ctx context.Context, states <-chan dashboard.State) {
	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			data, err := json.Marshal(s.View())
			if err != nil {
				p.logger.Error("failed to encode dashboard view", "error", err)
				continue
			}
			if bytes.Equal(data, last) {
				continue
			}
			if err := p.send(data); err != nil {
				p.logger.Warn("failed to publish dashboard view", "topic", p.topic, "error", err)
				continue
			}
			last = data
		}
	}
}

func (p *Publisher) publish(payload []byte) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	token := p.client.Publish(p.topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.logger.Debug("published dashboard view", "topic", p.topic, "bytes", len(payload))
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
