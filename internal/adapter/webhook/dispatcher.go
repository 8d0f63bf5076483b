package webhook

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

var _ port.Notifier = (*Dispatcher)(nil)

// Payload is the JSON body POSTed to an order's callback endpoint on every
// status change.
type Payload struct {
	Message     string             `json:"message"`
	IsLocked    bool               `json:"isLocked"`
	UserID      string             `json:"userId"`
	Asset       string             `json:"asset"`
	Price       float64            `json:"price"`
	Quantity    float64            `json:"quantity"`
	OrderStatus domain.OrderStatus `json:"orderStatus"`
}

type task struct {
	url     string
	payload Payload
}

// Dispatcher delivers webhooks from a bounded worker pool. Submission never
// blocks the matching loop: when all workers are busy and the queue is full,
// the notification is dropped with an error log. Delivery is best-effort and
// decoupled from matching correctness.
type Dispatcher struct {
	client *http.Client
	tasks  chan task
	wg     sync.WaitGroup
	log    *slog.Logger

	closeOnce sync.Once
}

// NewDispatcher starts maxInflight delivery workers sharing a queue of the
// same depth.
func NewDispatcher(maxInflight int, log *slog.Logger) *Dispatcher {
	if maxInflight <= 0 {
		maxInflight = 16
	}
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		client: &http.Client{Timeout: 5 * time.Second},
		tasks:  make(chan task, maxInflight),
		log:    log.With("component", "webhook"),
	}
	for i := 0; i < maxInflight; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) Notify(order domain.Order, message string, locked bool) {
	if order.CallbackURL == "" {
		return
	}
	t := task{
		url: order.CallbackURL,
		payload: Payload{
			Message:     message,
			IsLocked:    locked,
			UserID:      order.UserID,
			Asset:       order.Asset,
			Price:       order.Price,
			Quantity:    order.Quantity,
			OrderStatus: order.Status,
		},
	}
	select {
	case d.tasks <- t:
	default:
		d.log.Error("webhook queue full, dropping notification",
			"url", order.CallbackURL,
			"order", order.ID)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.send(t)
	}
}

func (d *Dispatcher) send(t task) {
	body, err := json.Marshal(t.payload)
	if err != nil {
		d.log.Error("webhook encode failed", "url", t.url, "err", err)
		return
	}
	resp, err := d.client.Post(t.url, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.Error("webhook delivery failed", "url", t.url, "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log.Error("webhook rejected", "url", t.url, "status", resp.StatusCode)
		return
	}
	d.log.Debug("webhook sent", "url", t.url, "status", resp.StatusCode)
}

// Close drains in-flight deliveries and stops the workers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.tasks) })
	d.wg.Wait()
}
