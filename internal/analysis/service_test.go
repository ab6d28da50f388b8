package analysis

import (
	"context"
	"image"
	"image/color"
	"testing"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/inference"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/region"
	"go-skin-analyzer/pkg/validation"
)

type fakeEngine struct {
	predictions map[region.Name]inference.RawPrediction
	err         error
	calls       int
}

func (f *fakeEngine) PredictAllRegions(ctx context.Context, img image.Image) (map[region.Name]inference.RawPrediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.predictions, nil
}

func (f *fakeEngine) Close() error { return nil }

type recordingObserver struct {
	events []observer.AnalysisEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event observer.AnalysisEvent) {
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return "recording_observer" }

func permissiveValidator() *validation.FaceValidator {
	thresholds := validation.DefaultThresholds()
	thresholds.SkipSizeCheck = true
	thresholds.SkipBrightnessCheck = true
	thresholds.SkipFaceDetection = true
	return validation.NewFaceValidatorWithThresholds(nil, thresholds)
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func newPublisher(rec *recordingObserver) observer.Subject {
	p := observer.NewEventPublisher()
	p.Subscribe(rec)
	return p
}

func TestAnalyzeFace_Success(t *testing.T) {
	engine := &fakeEngine{predictions: map[region.Name]inference.RawPrediction{
		// Grade 0, no metrics: score 100. Grade 3, no metrics: score 40.
		region.Forehead: {Classification: []float64{3, 0, 0, 0}},
		region.Chin:     {Classification: []float64{0, 0, 0, 5}},
	}}
	rec := &recordingObserver{}
	svc := NewService(permissiveValidator(), engine, newPublisher(rec))

	result, err := svc.AnalyzeFace(context.Background(), testImage(), "user-1")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if result.OverallScore != 70.0 {
		t.Errorf("Expected overall score 70.0 (mean of 100 and 40), got %v", result.OverallScore)
	}
	if len(result.Regions) != 2 {
		t.Errorf("Expected 2 regions, got %d", len(result.Regions))
	}
	if result.Regions["forehead"].Grade != 0 {
		t.Errorf("Expected forehead grade 0, got %d", result.Regions["forehead"].Grade)
	}
	if result.Regions["chin"].Grade != 3 {
		t.Errorf("Expected chin grade 3, got %d", result.Regions["chin"].Grade)
	}
	if result.Recommendation.Mode == "" {
		t.Error("Expected a recommendation")
	}

	if len(rec.events) != 2 {
		t.Fatalf("Expected started and completed events, got %d", len(rec.events))
	}
	if rec.events[0].EventType != observer.AnalysisStarted {
		t.Errorf("Expected first event analysis_started, got %s", rec.events[0].EventType)
	}
	completed := rec.events[1]
	if completed.EventType != observer.AnalysisCompleted || !completed.Success {
		t.Errorf("Expected successful completion event, got %+v", completed)
	}
	if completed.UserID != "user-1" {
		t.Errorf("Expected user-1 on event, got %s", completed.UserID)
	}
}

func TestAnalyzeFace_PartialRegionsAverageOnlyPresent(t *testing.T) {
	// Three of six regions answered; the mean covers only those three.
	engine := &fakeEngine{predictions: map[region.Name]inference.RawPrediction{
		region.Forehead: {Classification: []float64{5, 0, 0, 0}}, // score 100
		region.CheekL:   {Classification: []float64{0, 5, 0, 0}}, // score 80
		region.Chin:     {Classification: []float64{0, 0, 5, 0}}, // score 60
	}}
	svc := NewService(permissiveValidator(), engine, newPublisher(&recordingObserver{}))

	result, err := svc.AnalyzeFace(context.Background(), testImage(), "user-1")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(result.Regions) != 3 {
		t.Fatalf("Expected 3 regions, got %d", len(result.Regions))
	}
	if result.OverallScore != 80.0 {
		t.Errorf("Expected overall score 80.0 over present regions only, got %v", result.OverallScore)
	}
}

func TestAnalyzeFace_ValidationFailureSkipsInference(t *testing.T) {
	engine := &fakeEngine{}
	rec := &recordingObserver{}
	// Default thresholds reject a 50x50 image before inference.
	validator := validation.NewFaceValidator(nil)
	svc := NewService(validator, engine, newPublisher(rec))

	small := image.NewRGBA(image.Rect(0, 0, 50, 50))
	_, err := svc.AnalyzeFace(context.Background(), small, "user-1")
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImage) {
		t.Errorf("Expected invalid_image, got %v", apperrors.GetKind(err))
	}
	if engine.calls != 0 {
		t.Errorf("Expected no inference calls after rejection, got %d", engine.calls)
	}

	last := rec.events[len(rec.events)-1]
	if last.EventType != observer.ValidationRejected {
		t.Errorf("Expected validation_rejected event, got %s", last.EventType)
	}
}

func TestAnalyzeFace_EngineErrorPropagates(t *testing.T) {
	engine := &fakeEngine{err: apperrors.NewAdapterTimeoutError("inference server timed out", nil)}
	rec := &recordingObserver{}
	svc := NewService(permissiveValidator(), engine, newPublisher(rec))

	_, err := svc.AnalyzeFace(context.Background(), testImage(), "")
	if err == nil {
		t.Fatal("Expected engine error to propagate")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeAdapterTimeout) {
		t.Errorf("Expected adapter_timeout, got %v", apperrors.GetKind(err))
	}

	last := rec.events[len(rec.events)-1]
	if last.EventType != observer.AnalysisFailed {
		t.Errorf("Expected analysis_failed event, got %s", last.EventType)
	}
	if last.ErrorKind != string(apperrors.ErrorTypeAdapterTimeout) {
		t.Errorf("Expected error kind on event, got %s", last.ErrorKind)
	}
}

func TestAnalyzeFace_AllRegionsFailed(t *testing.T) {
	engine := &fakeEngine{predictions: map[region.Name]inference.RawPrediction{}}
	svc := NewService(permissiveValidator(), engine, newPublisher(&recordingObserver{}))

	result, err := svc.AnalyzeFace(context.Background(), testImage(), "user-1")
	if err != nil {
		t.Fatalf("Expected degraded result, not error, got %v", err)
	}
	if result.OverallScore != 0 {
		t.Errorf("Expected overall score 0, got %v", result.OverallScore)
	}
	if len(result.Regions) != 0 {
		t.Errorf("Expected no regions, got %d", len(result.Regions))
	}
	if result.Recommendation.Mode == "" {
		t.Error("Expected a default recommendation even with no regions")
	}
}

func TestAnalyzeFace_AnonymousUser(t *testing.T) {
	engine := &fakeEngine{predictions: map[region.Name]inference.RawPrediction{
		region.Forehead: {Classification: []float64{1, 0, 0, 0}},
	}}
	rec := &recordingObserver{}
	svc := NewService(permissiveValidator(), engine, newPublisher(rec))

	if _, err := svc.AnalyzeFace(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if rec.events[0].UserID != "anonymous" {
		t.Errorf("Expected anonymous user on events, got %s", rec.events[0].UserID)
	}
}

func TestAnalyzeFace_NilPublisher(t *testing.T) {
	engine := &fakeEngine{predictions: map[region.Name]inference.RawPrediction{
		region.Chin: {Classification: []float64{1, 0, 0, 0}},
	}}
	svc := NewService(permissiveValidator(), engine, nil)

	if _, err := svc.AnalyzeFace(context.Background(), testImage(), "user-1"); err != nil {
		t.Errorf("Expected success without publisher, got %v", err)
	}
}
