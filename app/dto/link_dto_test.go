package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsSummaryWireKeys(t *testing.T) {
	summary := AnalyticsSummary{
		TotalClicks: 10,
		TotalLinks:  2,
		ClicksToday: 1,
		ClicksWeek:  3,
		ClicksMonth: 5,
		ClicksYear:  10,
		Daily:       []DailyPoint{{Date: "2026-08-29", Clicks: 1}},
	}

	raw, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{
		"totalClicks", "totalLinks",
		"todayClicks", "weekClicks", "monthClicks", "yearClicks",
		"seriesDaily", "topLinks", "recentLinks",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "clicksToday")
	assert.NotContains(t, decoded, "daily")
}
