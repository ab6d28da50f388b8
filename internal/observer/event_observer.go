package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent describes one lifecycle event of a face analysis.
type AnalysisEvent struct {
	EventType      EventType     `json:"event_type"`
	Timestamp      time.Time     `json:"timestamp"`
	UserID         string        `json:"user_id"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	OverallScore   float64       `json:"overall_score,omitempty"`
	RegionCount    int           `json:"region_count,omitempty"`
	LEDMode        string        `json:"led_mode,omitempty"`
}

// EventType identifies the kind of analysis event.
type EventType string

const (
	AnalysisStarted    EventType = "analysis_started"
	AnalysisCompleted  EventType = "analysis_completed"
	AnalysisFailed     EventType = "analysis_failed"
	ValidationRejected EventType = "validation_rejected"
)

// Observer receives analysis events.
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject publishes analysis events to subscribed observers.
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events.
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer.
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles analysis events by logging them.
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"user_id":         event.UserID,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.ErrorKind != "" {
		fields["error_kind"] = event.ErrorKind
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.RegionCount > 0 {
		fields["regions"] = event.RegionCount
	}
	if event.LEDMode != "" {
		fields["led_mode"] = event.LEDMode
	}

	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Info("Face analysis started")
	case AnalysisCompleted:
		fields["overall_score"] = event.OverallScore
		o.logger.WithFields(fields).Info("Face analysis completed")
	case AnalysisFailed:
		o.logger.WithFields(fields).Error("Face analysis failed")
	case ValidationRejected:
		o.logger.WithFields(fields).Warn("Image rejected by validator")
	default:
		o.logger.WithFields(fields).Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name.
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver aggregates service-level counters from analysis events.
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	completedAnalyses   int64
	failedAnalyses      int64
	rejectedImages      int64
	totalProcessingTime time.Duration
	modeCounts          map[string]int64
}

// NewMetricsObserver creates a new metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{modeCounts: make(map[string]int64)}
}

// OnEvent handles analysis events by collecting metrics.
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.completedAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		if event.LEDMode != "" {
			o.modeCounts[event.LEDMode]++
		}
	case AnalysisFailed:
		o.failedAnalyses++
	case ValidationRejected:
		o.rejectedImages++
	}
}

// GetObserverName returns the observer name.
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns the current counters.
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedAnalyses)
	}

	modes := make(map[string]int64, len(o.modeCounts))
	for k, v := range o.modeCounts {
		modes[k] = v
	}

	return map[string]interface{}{
		"total_analyses":         o.totalAnalyses,
		"completed_analyses":     o.completedAnalyses,
		"failed_analyses":        o.failedAnalyses,
		"rejected_images":        o.rejectedImages,
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
		"recommended_modes":      modes,
	}
}

// EventPublisher implements Subject.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Subscribe registers an observer.
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer by name.
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.observers {
		if o.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers delivers the event to every subscribed observer.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}
