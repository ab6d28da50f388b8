package models

import "time"

// RegionResult is the scored outcome for a single facial region. Grade is the
// argmax of the classification head (0 best, 3 worst); Confidence is the
// softmax maximum scaled to 0-100; Metrics are named 0-100 severity values.
type RegionResult struct {
	Grade      int                `json:"grade"`
	Confidence float64            `json:"confidence"`
	Metrics    map[string]float64 `json:"metrics"`
	Score      float64            `json:"score"`
}

// Recommendation is the LED therapy protocol derived from an analysis.
type Recommendation struct {
	Mode          string             `json:"mode"`
	Duration      int                `json:"duration"`
	Reason        string             `json:"reason"`
	TargetRegions []string           `json:"target_regions"`
	Intensity     int                `json:"intensity"`
	BLECommand    string             `json:"ble_command"`
	IssueAnalysis map[string]float64 `json:"issue_analysis"`
}

// AnalysisResult is the complete outcome of one face analysis. Regions only
// contains entries for regions whose inference succeeded; OverallScore is the
// mean of the present region scores rounded to one decimal.
type AnalysisResult struct {
	OverallScore   float64                 `json:"overall_score"`
	Regions        map[string]RegionResult `json:"regions"`
	Recommendation Recommendation          `json:"recommendation"`
}

// HistoryRecord mirrors AnalysisResult plus the identifying fields the
// history store persists. It must round-trip losslessly through JSON/BSON.
type HistoryRecord struct {
	ID             string                  `json:"id" bson:"_id"`
	UserID         string                  `json:"user_id" bson:"user_id"`
	Timestamp      time.Time               `json:"timestamp" bson:"timestamp"`
	OverallScore   float64                 `json:"overall_score" bson:"overall_score"`
	Regions        map[string]RegionResult `json:"regions" bson:"regions"`
	Recommendation Recommendation          `json:"recommendation" bson:"recommendation"`
	CourseName     string                  `json:"course_name" bson:"course_name"`
}

// UserStats summarizes a user's analysis history.
type UserStats struct {
	UserID        string             `json:"user_id"`
	TotalAnalyses int                `json:"total_analyses"`
	AverageScore  float64            `json:"average_score"`
	Trend         string             `json:"trend"`
	RegionStats   map[string]float64 `json:"region_stats"`
	LatestScore   float64            `json:"latest_score"`
	BestScore     float64            `json:"best_score"`
	WorstScore    float64            `json:"worst_score"`
}
