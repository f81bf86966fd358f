package sms

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"trackmate/internal/core/model"
)

const (
	DefaultBrokerURL      = "tcp://localhost:1883"
	DefaultClientID       = "trackmate-server"
	DefaultOutboundPrefix = "sms/outbound/"
	DefaultInboundTopic   = "sms/inbound"
	DefaultNotifyTopic    = "trackmate/notifications"
)

type GatewayConfig struct {
	BrokerURL      string
	ClientID       string
	OutboundPrefix string
	InboundTopic   string
	NotifyTopic    string
}

// InboundMessage is the payload the phone-side gateway publishes for each
// SMS received from the locator.
type InboundMessage struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// OutboundMessage asks the phone-side gateway to send one SMS.
type OutboundMessage struct {
	To     string    `json:"to"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

type notification struct {
	Category model.NotificationCategory `json:"category"`
	Title    string                     `json:"title"`
	Body     string                     `json:"body"`
	SentAt   time.Time                  `json:"sentAt"`
}

// Gateway bridges the SMS protocol over MQTT: a companion app on the phone
// with the SIM card subscribes to the outbound topics and republishes
// received texts on the inbound topic.
type Gateway struct {
	config  GatewayConfig
	client  mqtt.Client
	handler func(sender, body string)
}

func NewGateway(config GatewayConfig) *Gateway {
	if config.BrokerURL == "" {
		config.BrokerURL = DefaultBrokerURL
	}
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}
	if config.OutboundPrefix == "" {
		config.OutboundPrefix = DefaultOutboundPrefix
	}
	if config.InboundTopic == "" {
		config.InboundTopic = DefaultInboundTopic
	}
	if config.NotifyTopic == "" {
		config.NotifyTopic = DefaultNotifyTopic
	}
	return &Gateway{config: config}
}

// OnInbound registers the handler for received texts. Must be called before
// Connect.
func (g *Gateway) OnInbound(handler func(sender, body string)) {
	g.handler = handler
}

// Connect dials the broker. The inbound subscription is re-established on
// every (re)connect.
func (g *Gateway) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(g.config.BrokerURL).
		SetClientID(g.config.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[sms] broker connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("[sms] connected to broker %s", g.config.BrokerURL)
		token := client.Subscribe(g.config.InboundTopic, 1, g.onInbound)
		if token.Wait() && token.Error() != nil {
			log.Printf("[sms] subscribe to %s failed: %v", g.config.InboundTopic, token.Error())
		}
	})

	g.client = mqtt.NewClient(opts)
	if token := g.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (g *Gateway) Close() {
	if g.client != nil && g.client.IsConnected() {
		g.client.Disconnect(250)
	}
}

// SendText publishes one outbound SMS. Fire-and-forget: a failed publish is
// logged and otherwise treated like any lost text, recovered by the polling
// timeout.
func (g *Gateway) SendText(number, body string) {
	msg := OutboundMessage{To: number, Body: body, SentAt: time.Now().UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[sms] failed to encode outbound message: %v", err)
		return
	}
	topic := g.config.OutboundPrefix + number
	token := g.client.Publish(topic, 1, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("[sms] publish to %s failed: %v", topic, token.Error())
		}
	}()
}

// Notify publishes an alert for any subscribed client (phone app, desktop).
func (g *Gateway) Notify(category model.NotificationCategory, title, body string) {
	log.Printf("[notify] %s: %s: %s", category, title, body)
	data, err := json.Marshal(notification{
		Category: category,
		Title:    title,
		Body:     body,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[sms] failed to encode notification: %v", err)
		return
	}
	token := g.client.Publish(g.config.NotifyTopic, 1, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("[sms] notification publish failed: %v", token.Error())
		}
	}()
}

func (g *Gateway) onInbound(_ mqtt.Client, raw mqtt.Message) {
	var msg InboundMessage
	if err := json.Unmarshal(raw.Payload(), &msg); err != nil {
		log.Printf("[sms] dropping malformed inbound payload: %v", err)
		return
	}
	if g.handler == nil {
		log.Printf("[sms] no inbound handler registered, dropping message from %s", msg.Sender)
		return
	}
	g.handler(msg.Sender, msg.Body)
}
