package history

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/repository"
	"go-skin-analyzer/pkg/models"
)

// DefaultLimit caps history listings.
const DefaultLimit = 20

const defaultCourseName = "AI precision analysis"

// Service manages analysis history and per-user statistics.
type Service struct {
	repo repository.HistoryRepository
	log  *logrus.Entry
}

// NewService creates a history service backed by the given repository.
func NewService(repo repository.HistoryRepository) *Service {
	return &Service{
		repo: repo,
		log:  logger.ForComponent("history"),
	}
}

// Save persists one analysis result for a user and returns the stored record.
func (s *Service) Save(ctx context.Context, userID string, result *models.AnalysisResult) (*models.HistoryRecord, error) {
	record := &models.HistoryRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		Timestamp:      time.Now().UTC(),
		OverallScore:   result.OverallScore,
		Regions:        result.Regions,
		Recommendation: result.Recommendation,
		CourseName:     defaultCourseName,
	}

	if err := s.repo.Save(ctx, record); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("Failed to save history")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "score": result.OverallScore}).Info("History saved")
	return record, nil
}

// List returns up to DefaultLimit records for a user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.HistoryRecord, error) {
	return s.repo.ListByUser(ctx, userID, DefaultLimit)
}

// Stats computes summary statistics over a user's whole history. The trend
// compares the mean of the five most recent scores against the all-time
// mean with a 5-point dead band.
func (s *Service) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	records, err := s.repo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &models.UserStats{
		UserID:      userID,
		Trend:       "neutral",
		RegionStats: map[string]float64{},
	}
	if len(records) == 0 {
		return stats, nil
	}

	scores := make([]float64, len(records))
	sum := 0.0
	for i, r := range records {
		scores[i] = r.OverallScore
		sum += r.OverallScore
	}
	avg := sum / float64(len(scores))

	recent := scores
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recentSum := 0.0
	for _, v := range recent {
		recentSum += v
	}
	recentAvg := recentSum / float64(len(recent))

	switch {
	case recentAvg > avg+5:
		stats.Trend = "improving"
	case recentAvg < avg-5:
		stats.Trend = "declining"
	default:
		stats.Trend = "stable"
	}

	regionScores := map[string][]float64{}
	for _, r := range records {
		for name, data := range r.Regions {
			regionScores[name] = append(regionScores[name], data.Score)
		}
	}
	for name, vals := range regionScores {
		regionSum := 0.0
		for _, v := range vals {
			regionSum += v
		}
		stats.RegionStats[name] = round1(regionSum / float64(len(vals)))
	}

	best, worst := scores[0], scores[0]
	for _, v := range scores {
		if v > best {
			best = v
		}
		if v < worst {
			worst = v
		}
	}

	stats.TotalAnalyses = len(records)
	stats.AverageScore = round1(avg)
	stats.LatestScore = scores[0]
	stats.BestScore = best
	stats.WorstScore = worst
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
