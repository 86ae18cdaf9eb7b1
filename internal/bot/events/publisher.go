// Package events announces appended ledger entries on an AMQP topic
// exchange. Routing keys are "ledger.start", "ledger.fuel" and
// "ledger.end"; bodies are JSON.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

const DefaultExchange = "ledger"

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// openChannel is a test seam. It dials url and opens one channel; the
// returned closer closes the connection.
var openChannel = func(url string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn, nil
}

// Message is the published form of a ledger entry.
type Message struct {
	Date       string    `json:"date"`
	UID        string    `json:"uid"`
	Type       string    `json:"type"`
	Time       time.Time `json:"time"`
	Odometer   *int64    `json:"odometer,omitempty"`
	Photo      string    `json:"photo,omitempty"`
	Liters     *float64  `json:"liters,omitempty"`
	Cost       *float64  `json:"cost,omitempty"`
	DeltaKm    *float64  `json:"delta_km,omitempty"`
	PersonalKm *float64  `json:"personal_km,omitempty"`
}

func NewMessage(e *models.LedgerEntry) Message {
	return Message{
		Date:       e.Date,
		UID:        e.UID,
		Type:       string(e.Type),
		Time:       e.Time,
		Odometer:   e.Odometer,
		Photo:      e.Photo,
		Liters:     e.Liters,
		Cost:       e.Cost,
		DeltaKm:    e.DeltaKm,
		PersonalKm: e.PersonalKm,
	}
}

func RoutingKey(t models.EntryType) string {
	return "ledger." + strings.ToLower(string(t))
}

var ErrClosed = errors.New("publisher closed")

// AMQPPublisher publishes on one channel. A failed publish drops the
// channel and the next publish redials.
type AMQPPublisher struct {
	url      string
	exchange string
	timeout  time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	ch     channel
	conn   io.Closer
	closed bool
}

func NewAMQPPublisher(url, exchange string, logger logging.Logger) *AMQPPublisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &AMQPPublisher{
		url:      url,
		exchange: exchange,
		timeout:  5 * time.Second,
		logger:   logger.With("module", "events"),
	}
}

// Connect dials the broker and declares the exchange.
func (p *AMQPPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channelLocked()
	return err
}

func (p *AMQPPublisher) channelLocked() (channel, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if p.ch != nil {
		return p.ch, nil
	}

	ch, conn, err := openChannel(p.url)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.ch, p.conn = ch, conn
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e *models.LedgerEntry) error {
	body, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = ch.PublishWithContext(pubCtx, p.exchange, RoutingKey(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.Time,
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", RoutingKey(e.Type), err)
	}
	p.logger.Debug(ctx, "entry published", "uid", e.UID, "type", string(e.Type))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.closed = true
	return nil
}
