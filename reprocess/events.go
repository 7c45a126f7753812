package reprocess

import (
	"sync"

	"songhouse/logger"
	"songhouse/model"
)

// FoundEvent is emitted after a reprocessing pass stored new results in the
// cache and marked the backing requests FOUND.
type FoundEvent struct {
	UserID  int64                           `json:"userId"`
	Results map[int64]model.ReprocessResult `json:"results"`
}

// FoundListener receives found events. Listener failures are the listener's
// problem; the publisher never blocks the reprocessing pass on them.
type FoundListener interface {
	OnReprocessFound(event FoundEvent)
}

// Publisher fans found events out to subscribed listeners.
type Publisher struct {
	mu        sync.RWMutex
	listeners []FoundListener
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Subscribe(listener FoundListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

func (p *Publisher) Publish(event FoundEvent) {
	p.mu.RLock()
	listeners := make([]FoundListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.RUnlock()

	for _, listener := range listeners {
		listener.OnReprocessFound(event)
	}
}

// LoggingFoundListener logs every found event.
type LoggingFoundListener struct{}

func (LoggingFoundListener) OnReprocessFound(event FoundEvent) {
	logger.Info("received reprocess found event",
		logger.Int64("userId", event.UserID),
		logger.Int("results", len(event.Results)))
}
