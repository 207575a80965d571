package memory

import (
	"math"
	"strings"
	"time"
)

// Composite ranking weights. Importance dominates, recency decays with a
// 7-day half-life, and a preferred-label hit adds a flat bonus.
const (
	weightImportance = 0.5
	weightRecency    = 0.3
	weightLabelMatch = 0.2

	labelMatchBonus = 5.0

	recencyFloor         = 0.1
	recencyHalfLifeDays  = 7.0
	heuristicBase        = 5.0
	heuristicMin         = 1.0
	heuristicMax         = 10.0
	heuristicWeight      = 0.3
	remoteWeight         = 0.7
	importanceMidDefault = 5.0
)

// importanceKeywords each add 1.0 to the heuristic score when present.
var importanceKeywords = []string{"critical", "important", "urgent", "decision"}

// RecencyScore returns max(0.1, 2^(-daysOld/7)). Strictly decreasing in age,
// never zero, so old material can still surface on high importance.
func RecencyScore(timestamp, now time.Time) float64 {
	daysOld := now.Sub(timestamp).Hours() / 24
	if daysOld < 0 {
		daysOld = 0
	}
	score := math.Exp2(-daysOld / recencyHalfLifeDays)
	return math.Max(recencyFloor, score)
}

// HeuristicScore rates message content on a [1, 10] scale from surface
// signals alone. No I/O.
func HeuristicScore(content string) float64 {
	score := heuristicBase
	if len(content) > 100 {
		score += 1.0
	}
	if strings.Contains(content, "```") {
		score += 2.0
	}
	if strings.HasSuffix(strings.TrimSpace(content), "?") {
		score += 0.5
	}
	lower := strings.ToLower(content)
	for _, keyword := range importanceKeywords {
		if strings.Contains(lower, keyword) {
			score += 1.0
		}
	}
	return math.Min(heuristicMax, math.Max(heuristicMin, score))
}

// CompositeScore blends importance, recency and label match into the rank
// order key. The terms are on different scales: importance is 1-10, recency
// is (0.1, 1], and the label bonus is 0 or 5.
func CompositeScore(importance, recencyScore float64, labelMatched bool) float64 {
	labelScore := 0.0
	if labelMatched {
		labelScore = labelMatchBonus
	}
	return weightImportance*importance + weightRecency*recencyScore + weightLabelMatch*labelScore
}

// BlendImportance combines the local heuristic with the remote judgment.
// The remote term stays on its [0, 1] scale and the result is not reclamped,
// so blended values may fall outside [1, 10].
func BlendImportance(heuristic, remote float64) float64 {
	return heuristic*heuristicWeight + remote*remoteWeight
}
