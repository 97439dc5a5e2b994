package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
)

const deliverTimeout = 10 * time.Second

// Dispatcher queues events on a buffered channel and fans them out to sinks
// from a single worker goroutine. Publish never blocks and never fails the caller.
type Dispatcher struct {
	events chan Event
	sinks  []Sink
	log    *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(bufferSize int, sinks ...Sink) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Dispatcher{
		events: make(chan Event, bufferSize),
		sinks:  sinks,
		log:    slog.Default().With("component", "notify"),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go d.run()
	d.log.Info("알림 디스패처 시작", "sinks", len(d.sinks), "buffer", cap(d.events))
}

// Publish enqueues event, dropping it when the buffer is full or the dispatcher is closed
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("종료된 디스패처에 알림 발행 시도", "event", event.Type, "request_id", event.RequestID)
		metrics.NotificationDropped()
		return
	}

	select {
	case d.events <- event:
	default:
		d.log.Warn("알림 버퍼가 가득 차 이벤트를 버립니다", "event", event.Type, "request_id", event.RequestID)
		metrics.NotificationDropped()
	}
}

// Close stops accepting events and waits for queued events to drain or ctx to expire
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	select {
	case <-d.done:
		d.log.Info("알림 디스패처 종료")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("알림 디스패처 종료 대기 시간 초과: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.events {
		for _, sink := range d.sinks {
			d.deliver(sink, event)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sink panic: %v", r)
			}
		}()
		err = sink.Deliver(ctx, event)
	}()

	metrics.NotificationDelivered(sink.Name(), err)
	if err != nil {
		d.log.Error("알림 전송 실패",
			"sink", sink.Name(),
			"event", event.Type,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
