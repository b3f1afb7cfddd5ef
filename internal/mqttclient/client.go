package mqttclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// publishTimeout bounds a publish when the caller's context has no deadline.
const publishTimeout = 5 * time.Second

// conn is the part of the paho client the publisher uses.
type conn interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// FollowUp is the notification payload sent after an entry is stored. The
// follow-up question is meant to be delivered to the user hours later.
type FollowUp struct {
	BitacoraID       int64     `json:"bitacora_id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	EmotionState     string    `json:"emotion_state"`
	FollowUpQuestion string    `json:"follow_up_question"`
	CreatedAt        time.Time `json:"created_at"`
}

// Publisher sends follow-up notifications to a single topic.
type Publisher struct {
	conn      conn
	topic     string
	connected atomic.Bool
	log       zerolog.Logger
}

type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect dials the broker and returns a publisher. The client reconnects
// on its own after the first successful connection.
func Connect(opts Options) (*Publisher, error) {
	p := &Publisher{
		topic: opts.Topic,
		log:   opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	p.conn = client

	return p, nil
}

func (p *Publisher) onConnect(_ mqtt.Client) {
	p.connected.Store(true)
	p.log.Info().Str("topic", p.topic).Msg("mqtt connected")
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.connected.Store(false)
	p.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// PublishFollowUp sends msg with QoS 1 and waits for the broker ack until
// ctx is done or publishTimeout elapses.
func (p *Publisher) PublishFollowUp(ctx context.Context, msg FollowUp) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal follow-up: %w", err)
	}

	token := p.conn.Publish(p.topic, 1, false, payload)

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish follow-up: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("publish follow-up: timed out after %s", publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish follow-up: %w", err)
	}

	p.log.Debug().Int64("bitacora_id", msg.BitacoraID).Str("user_id", msg.UserID).Msg("follow-up published")
	return nil
}

func (p *Publisher) IsConnected() bool {
	return p.connected.Load()
}

func (p *Publisher) Close() {
	p.log.Info().Msg("disconnecting mqtt client")
	p.conn.Disconnect(1000)
}
