package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecencyScore(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		daysOld float64
		want    float64
	}{
		{"fresh message", 0, 1.0},
		{"one half-life", 7, 0.5},
		{"two half-lives", 14, 0.25},
		{"very old hits the floor", 365, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := now.Add(-time.Duration(tt.daysOld*24) * time.Hour)
			require.InDelta(t, tt.want, RecencyScore(ts, now), 1e-9)
		})
	}
}

func TestRecencyScoreMonotonicAndBounded(t *testing.T) {
	now := time.Now()
	prev := RecencyScore(now, now)
	for days := 1; days <= 120; days++ {
		score := RecencyScore(now.AddDate(0, 0, -days), now)
		require.LessOrEqual(t, score, prev, "recency must not increase with age (day %d)", days)
		require.GreaterOrEqual(t, score, 0.1, "recency floor violated at day %d", days)
		prev = score
	}
}

func TestRecencyScoreFutureTimestamp(t *testing.T) {
	now := time.Now()
	require.InDelta(t, 1.0, RecencyScore(now.Add(time.Hour), now), 1e-9)
}

func TestHeuristicScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"plain short text", "hello", 5.0},
		{"long text", string(make([]byte, 150)), 6.0},
		{"code block", "```go\nfunc main() {}\n```", 7.0},
		{"question", "how does this work?", 5.5},
		{"single keyword", "this is critical", 6.0},
		{"keyword and question", "What is the urgent issue here?", 6.5},
		{"stacked bonuses clamp at ten", "critical important urgent decision ```" + string(make([]byte, 150)) + "``` ?", 10.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, HeuristicScore(tt.content), 1e-9)
		})
	}
}

func TestHeuristicScoreClamped(t *testing.T) {
	contents := []string{"", "x", "critical urgent important decision critical ``` long?"}
	for _, content := range contents {
		score := HeuristicScore(content)
		require.GreaterOrEqual(t, score, 1.0)
		require.LessOrEqual(t, score, 10.0)
	}
}

func TestCompositeScore(t *testing.T) {
	// 0.5*importance + 0.3*recency + 0.2*labelMatch
	require.InDelta(t, 0.5*5.0+0.3*1.0, CompositeScore(5.0, 1.0, false), 1e-9)
	require.InDelta(t, 0.5*5.0+0.3*1.0+0.2*5.0, CompositeScore(5.0, 1.0, true), 1e-9)
}

func TestBlendImportance(t *testing.T) {
	// The blend is not reclamped: the remote term stays on its [0, 1] scale.
	require.InDelta(t, 2.44, BlendImportance(6.5, 0.7), 1e-9)
	require.Less(t, BlendImportance(1.0, 0.0), 1.0)
}
