package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/region"
	"go-skin-analyzer/pkg/models"
)

// Issue categories in fixed declaration order. The order is the tie-break
// rule when two accumulators are exactly equal, so it must not change.
const (
	IssueWrinkle      = "wrinkle"
	IssueElasticity   = "elasticity"
	IssuePigmentation = "pigmentation"
	IssueAcne         = "acne"
	IssuePore         = "pore"
)

var issueOrder = []string{IssueWrinkle, IssueElasticity, IssuePigmentation, IssueAcne, IssuePore}

// weakThreshold flags regions reported back to the user as target regions.
// It does not gate issue weighting: every region contributes its deficit.
const weakThreshold = 70.0

var modeReasons = map[string]string{
	ModeRed:  "Focused care for wrinkles and loss of elasticity",
	ModeBlue: "Focused care for pores and sebum buildup",
	ModeGold: "Focused care for pigmentation and uneven skin tone",
}

// Recommend selects an LED therapy protocol from the per-region scores. The
// rule table is deterministic: identical regions input always yields an
// identical recommendation.
func Recommend(overallScore float64, regions map[string]models.RegionResult) models.Recommendation {
	issueScores := map[string]float64{
		IssueWrinkle:      0,
		IssueElasticity:   0,
		IssuePigmentation: 0,
		IssueAcne:         0,
		IssuePore:         0,
	}

	weakRegions := []string{}
	for _, name := range region.All() {
		data, ok := regions[string(name)]
		if !ok {
			continue
		}
		if data.Score < weakThreshold {
			weakRegions = append(weakRegions, string(name))
		}

		deficit := 100 - data.Score
		switch name {
		case region.Forehead, region.EyeL, region.EyeR:
			issueScores[IssueWrinkle] += deficit * 0.3
			issueScores[IssueElasticity] += deficit * 0.2
		case region.CheekL, region.CheekR:
			issueScores[IssuePore] += deficit * 0.25
			issueScores[IssuePigmentation] += deficit * 0.2
		case region.Chin:
			issueScores[IssueAcne] += deficit * 0.3
		}
	}

	mainIssue := issueOrder[0]
	for _, issue := range issueOrder {
		if issueScores[issue] > issueScores[mainIssue] {
			mainIssue = issue
		}
	}
	severity := issueScores[mainIssue]

	var mode string
	switch mainIssue {
	case IssueAcne, IssuePore:
		mode = ModeBlue
	case IssueWrinkle, IssueElasticity:
		mode = ModeRed
	default:
		mode = ModeGold
	}

	var duration int
	switch {
	case severity > 40:
		duration = 25
	case severity > 25:
		duration = 20
	default:
		duration = 15
	}

	intensity := int(math.Min(100, math.Max(50, math.Round(severity*1.5))))

	analysis := make(map[string]float64, len(issueScores))
	for k, v := range issueScores {
		analysis[k] = math.Round(v*100) / 100
	}

	rec := models.Recommendation{
		Mode:          mode,
		Duration:      duration,
		Reason:        modeReasons[mode],
		TargetRegions: weakRegions,
		Intensity:     intensity,
		BLECommand:    fmt.Sprintf("START:%s:%d", strings.ToUpper(mode), duration),
		IssueAnalysis: analysis,
	}

	logger.ForComponent("recommend").WithFields(logrus.Fields{
		"overall_score": overallScore,
		"main_issue":    mainIssue,
		"mode":          mode,
		"duration":      duration,
		"intensity":     intensity,
	}).Info("LED recommendation issued")

	return rec
}
