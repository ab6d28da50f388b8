package observer

import (
	"context"
	"testing"
	"time"
)

type countingObserver struct {
	name   string
	events int
}

func (c *countingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	c.events++
}

func (c *countingObserver) GetObserverName() string { return c.name }

func TestEventPublisher_SubscribeNotify(t *testing.T) {
	publisher := NewEventPublisher()
	a := &countingObserver{name: "a"}
	b := &countingObserver{name: "b"}
	publisher.Subscribe(a)
	publisher.Subscribe(b)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})

	if a.events != 1 || b.events != 1 {
		t.Errorf("Expected both observers notified once, got a=%d b=%d", a.events, b.events)
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher()
	a := &countingObserver{name: "a"}
	publisher.Subscribe(a)
	publisher.Unsubscribe(a)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})

	if a.events != 0 {
		t.Errorf("Expected unsubscribed observer to receive nothing, got %d", a.events)
	}
}

func TestMetricsObserver_Counters(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: 200 * time.Millisecond, LEDMode: "red"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed})
	m.OnEvent(ctx, AnalysisEvent{EventType: ValidationRejected})

	metrics := m.GetMetrics()

	if metrics["total_analyses"].(int64) != 2 {
		t.Errorf("Expected 2 total analyses, got %v", metrics["total_analyses"])
	}
	if metrics["completed_analyses"].(int64) != 1 {
		t.Errorf("Expected 1 completed, got %v", metrics["completed_analyses"])
	}
	if metrics["failed_analyses"].(int64) != 1 {
		t.Errorf("Expected 1 failed, got %v", metrics["failed_analyses"])
	}
	if metrics["rejected_images"].(int64) != 1 {
		t.Errorf("Expected 1 rejected, got %v", metrics["rejected_images"])
	}
	if metrics["avg_processing_time_ms"].(int64) != 200 {
		t.Errorf("Expected 200ms average, got %v", metrics["avg_processing_time_ms"])
	}

	modes := metrics["recommended_modes"].(map[string]int64)
	if modes["red"] != 1 {
		t.Errorf("Expected red mode counted once, got %v", modes)
	}
}
