// Package mqtt bridges the internal event bus to an MQTT broker so external
// dashboards can follow placements, waits and adopted optimizations live.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/depotplan/core/events"
	corelogger "github.com/kilianp07/depotplan/core/logger"
	"github.com/kilianp07/depotplan/internal/eventbus"
)

// Config defines the connection parameters for the event publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "depotplan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "depotplan"
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher forwards bus events to MQTT topics under the configured prefix:
// <prefix>/placements, <prefix>/waiting, <prefix>/removals and
// <prefix>/optimizer.
type Publisher struct {
	cli    pahoClient
	cfg    Config
	bus    eventbus.EventBus
	sub    <-chan eventbus.Event
	log    corelogger.Logger
	done   chan struct{}
	closed chan struct{}
}

// NewPublisher connects to the broker and starts forwarding events.
func NewPublisher(cfg Config, bus eventbus.EventBus, log corelogger.Logger) (*Publisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	cli := newMQTTClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
	}
	p := &Publisher{
		cli:    cli,
		cfg:    cfg,
		bus:    bus,
		sub:    bus.Subscribe(),
		log:    log,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *Publisher) run() {
	defer close(p.closed)
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-p.sub:
			if !ok {
				return
			}
			p.forward(ev)
		}
	}
}

func (p *Publisher) forward(ev eventbus.Event) {
	var topic string
	switch ev.(type) {
	case events.PlacementEvent:
		topic = p.cfg.TopicPrefix + "/placements"
	case events.WaitingEvent:
		topic = p.cfg.TopicPrefix + "/waiting"
	case events.RemovalEvent:
		topic = p.cfg.TopicPrefix + "/removals"
	case events.OptimizationEvent:
		topic = p.cfg.TopicPrefix + "/optimizer"
	default:
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warnf("marshal event: %v", err)
		return
	}
	if tok := p.cli.Publish(topic, p.cfg.QoS, false, payload); tok.Wait() && tok.Error() != nil {
		p.log.Warnf("publish %s: %v", topic, tok.Error())
	}
}

// Close stops forwarding and disconnects from the broker.
func (p *Publisher) Close() {
	close(p.done)
	p.bus.Unsubscribe(p.sub)
	<-p.closed
	p.cli.Disconnect(250)
}
