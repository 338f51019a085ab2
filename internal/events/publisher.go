// Package events announces saved inspections over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

const DefaultSubject = "beespeak.inspection.saved"

// InspectionSavedEvent is the message body published for every saved inspection.
type InspectionSavedEvent struct {
	InspectionID string                 `json:"inspectionId"`
	HiveID       string                 `json:"hiveId"`
	Date         time.Time              `json:"date"`
	Flags        domain.InspectionFlags `json:"flags"`
	Tags         []string               `json:"tags"`
	PhotoCount   int                    `json:"photoCount"`
	Transcript   string                 `json:"transcript"`
}

// Publisher publishes inspection events. A Publisher without a connection
// drops every event.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Connect dials url. An empty url yields a no-op publisher.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	p := &Publisher{subject: subject, logger: logger}
	if strings.TrimSpace(url) == "" {
		return p, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("beespeak"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	p.nc = nc
	logger.Info("publishing inspection events", "url", nc.ConnectedUrl(), "subject", subject)
	return p, nil
}

func (p *Publisher) Enabled() bool {
	return p.nc != nil
}

func (p *Publisher) Subject() string {
	return p.subject
}

func (p *Publisher) InspectionSaved(ctx context.Context, inspection domain.Inspection) error {
	if p.nc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	data, err := encodeInspectionSaved(inspection)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	p.logger.Debug("inspection event published", "inspection", inspection.ID, "subject", p.subject)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.nc == nil {
		p.closed = true
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

func encodeInspectionSaved(inspection domain.Inspection) ([]byte, error) {
	tags := inspection.Tags
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(InspectionSavedEvent{
		InspectionID: inspection.ID.String(),
		HiveID:       inspection.HiveID.String(),
		Date:         inspection.Date.UTC(),
		Flags:        inspection.Flags,
		Tags:         tags,
		PhotoCount:   len(inspection.Photos),
		Transcript:   inspection.Transcript,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal inspection event: %w", err)
	}
	return data, nil
}

var _ ports.InspectionPublisher = (*Publisher)(nil)
