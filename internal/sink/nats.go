package sink

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/discovery"
	"github.com/muurk/prolink/internal/logging"
)

// DefaultSubject is the NATS subject prefix devices are published under
const DefaultSubject = "prolink.devices"

// Publisher publishes each fresh device to NATS as a JSON Event.
//
// The subject is "<prefix>.<kind name>", e.g. prolink.devices.cdj, so
// subscribers can filter by device kind. Unknown kinds go to "<prefix>.other". Each message carries a unique
// Nats-Msg-Id header for JetStream deduplication.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	namer  Namer
	now    func() time.Time
}

// NewPublisher connects to url. namer may be nil; an empty prefix uses
// DefaultSubject.
func NewPublisher(url, prefix string, namer Namer) (*Publisher, error) {
	if prefix == "" {
		prefix = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("prolink"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return &Publisher{
		conn:   conn,
		prefix: prefix,
		namer:  namer,
		now:    time.Now,
	}, nil
}

// Subject returns the subject a device is published on
func (p *Publisher) Subject(d discovery.Device) string {
	switch d.Kind {
	case discovery.KindCDJ, discovery.KindMixer, discovery.KindRekord:
		return p.prefix + "." + discovery.KindName(d.Kind)
	default:
		return p.prefix + ".other"
	}
}

// Handle implements Handler
func (p *Publisher) Handle(d discovery.Device) error {
	data, err := json.Marshal(NewEvent(d, p.now(), p.namer))
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.Subject(d))
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and disconnects
func (p *Publisher) Close() error {
	defer p.conn.Close()
	return p.conn.Flush()
}
