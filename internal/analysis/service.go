package analysis

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/inference"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/metrics"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/recommend"
	"go-skin-analyzer/pkg/models"
	"go-skin-analyzer/pkg/validation"
)

// Service runs the full analysis pipeline: validation, per-region inference,
// metric normalization, scoring and LED recommendation.
type Service interface {
	AnalyzeFace(ctx context.Context, img image.Image, userID string) (*models.AnalysisResult, error)
}

type service struct {
	validator *validation.FaceValidator
	engine    inference.Engine
	publisher observer.Subject
	log       *logrus.Entry
}

// NewService creates the analysis service. publisher may be nil when no
// observers are wired.
func NewService(validator *validation.FaceValidator, engine inference.Engine, publisher observer.Subject) Service {
	return &service{
		validator: validator,
		engine:    engine,
		publisher: publisher,
		log:       logger.ForComponent("analysis"),
	}
}

// AnalyzeFace analyzes a face photo end to end. Validation failures surface
// as invalid_image errors before any inference runs; individual region
// failures are absorbed, and if every region fails the caller gets a zero
// score with empty regions rather than an error.
func (s *service) AnalyzeFace(ctx context.Context, img image.Image, userID string) (*models.AnalysisResult, error) {
	if userID == "" {
		userID = "anonymous"
	}
	start := time.Now()
	s.notify(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Timestamp: start,
		UserID:    userID,
	})

	if ok, reason := s.validator.Validate(img); !ok {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:      observer.ValidationRejected,
			Timestamp:      time.Now(),
			UserID:         userID,
			ProcessingTime: time.Since(start),
			ErrorKind:      string(apperrors.ErrorTypeInvalidImage),
			ErrorMessage:   reason,
		})
		return nil, apperrors.NewInvalidImageError(reason)
	}

	predictions, err := s.engine.PredictAllRegions(ctx, img)
	if err != nil {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Timestamp:      time.Now(),
			UserID:         userID,
			ProcessingTime: time.Since(start),
			ErrorKind:      string(apperrors.GetKind(err)),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	regions := make(map[string]models.RegionResult, len(predictions))
	totalScore := 0.0
	for name, pred := range predictions {
		result := metrics.ProcessPrediction(pred.Classification, pred.Regression, name)
		regions[string(name)] = result
		totalScore += result.Score
	}

	overall := 0.0
	if len(regions) > 0 {
		overall = math.Round(totalScore/float64(len(regions))*10) / 10
	} else {
		// Every region failed; report a zero score rather than dividing by
		// zero or crashing the request.
		s.log.WithField("user_id", userID).
			WithField("error_kind", apperrors.ErrorTypeNoRegions).
			Error("No regions analyzed")
	}

	result := &models.AnalysisResult{
		OverallScore:   overall,
		Regions:        regions,
		Recommendation: recommend.Recommend(overall, regions),
	}

	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Timestamp:      time.Now(),
		UserID:         userID,
		ProcessingTime: time.Since(start),
		Success:        true,
		OverallScore:   result.OverallScore,
		RegionCount:    len(result.Regions),
		LEDMode:        result.Recommendation.Mode,
	})
	return result, nil
}

func (s *service) notify(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}
