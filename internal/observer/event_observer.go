package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SubmissionEvent represents one step of a submission run
type SubmissionEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id,omitempty"`
	QueryType    string                 `json:"query_type"`
	Filename     string                 `json:"filename,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of submission event
type EventType string

const (
	// SubmitStarted when a submission passes its preconditions
	SubmitStarted EventType = "submit_started"
	// UnitRendered when a backend response is rendered
	UnitRendered EventType = "unit_rendered"
	// UnitFailed when the backend reports an error for a unit
	UnitFailed EventType = "unit_failed"
	// SubmitAborted when a transport failure stops the run
	SubmitAborted EventType = "submit_aborted"
	// SubmitFinished when the run ends, aborted or not
	SubmitFinished EventType = "submit_finished"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event SubmissionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event SubmissionEvent)
}

// LoggingObserver logs submission events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles submission events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event SubmissionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
		"query_type": event.QueryType,
		"duration":   event.Duration,
		"success":    event.Success,
	}

	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case SubmitStarted:
		entry.Info("Submission started")
	case UnitRendered:
		entry.Debug("Analysis result rendered")
	case UnitFailed:
		entry.Error("Analysis backend reported an error")
	case SubmitAborted:
		entry.Error("Submission aborted")
	case SubmitFinished:
		entry.Info("Submission finished")
	default:
		entry.Info("Submission event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from submission events
type MetricsObserver struct {
	mu                sync.RWMutex
	totalSubmissions  int64
	abortedSubmission int64
	unitsRendered     int64
	unitsFailed       int64
	totalSubmitTime   time.Duration
	finished          int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles submission events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event SubmissionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SubmitStarted:
		o.totalSubmissions++
	case UnitRendered:
		o.unitsRendered++
	case UnitFailed:
		o.unitsFailed++
	case SubmitAborted:
		o.abortedSubmission++
	case SubmitFinished:
		o.finished++
		o.totalSubmitTime += event.Duration
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgSubmitTime := time.Duration(0)
	if o.finished > 0 {
		avgSubmitTime = o.totalSubmitTime / time.Duration(o.finished)
	}

	return map[string]interface{}{
		"total_submissions":   o.totalSubmissions,
		"aborted_submissions": o.abortedSubmission,
		"units_rendered":      o.unitsRendered,
		"units_failed":        o.unitsFailed,
		"avg_submit_time_ms":  avgSubmitTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription order.
// Delivery is synchronous so events of one submission arrive in order.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event SubmissionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event SubmissionEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the submission
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
