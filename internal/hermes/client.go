package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Check-in subjects.
const (
	// SubjectCheckInTranscript carries transcripts submitted over the bus.
	SubjectCheckInTranscript = "clinic.checkin.transcript"
	SubjectCheckInCompleted  = "clinic.checkin.completed"
	SubjectCheckInFailed     = "clinic.checkin.failed"
)

// CheckInCompleted is published once a check-in has been extracted (and
// stored, when persistence is enabled).
type CheckInCompleted struct {
	VisitID        string `json:"visit_id,omitempty"`
	ReceptionistID string `json:"receptionist_id"`
	PatientID      string `json:"patient_id,omitempty"`
	PatientName    string `json:"patient_name,omitempty"`
	PrimarySymptom string `json:"primary_symptom,omitempty"`
	Model          string `json:"model"`
	Timestamp      string `json:"timestamp"`
}

// CheckInFailed is published when extraction did not produce a record.
type CheckInFailed struct {
	ReceptionistID string `json:"receptionist_id"`
	PatientID      string `json:"patient_id,omitempty"`
	Kind           string `json:"kind"`
	Error          string `json:"error"`
	Timestamp      string `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
