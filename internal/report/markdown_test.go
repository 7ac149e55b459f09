package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

func loadedSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(session.Config{})
	_, err := s.LoadOrders("orders.csv", strings.NewReader("Day,Orders\n2024-01-01,1200\n2024-01-02,1300\n2024-02-01,900\n"))
	require.NoError(t, err)
	_, err = s.LoadPlatform("Meta", "meta.csv", strings.NewReader("Day,Spend,Purchases\n2024-01-01,10,3\n2024-01-02,20,4\n2024-02-01,5,1\n"))
	require.NoError(t, err)
	return s
}

func TestMarkdownSections(t *testing.T) {
	out := Markdown(loadedSession(t).Snapshot())
	for _, section := range []string{"[SOURCES]", "[SCORECARDS]", "[PERIOD]", "[SELECTED METRIC]", "[CORRELATION SUMMARY]", "[DESCRIPTIVE STATISTICS]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "orders Orders: total 3,400")
	assert.Contains(t, out, "trend: JAN 2,500 → FEB 900")
	assert.Contains(t, out, "All time (3 of 3 days)")
	assert.Contains(t, out, "Orders ~ Spend: r=")
	assert.Contains(t, out, "| Meta Spend |")
	assert.NotContains(t, out, "[NOTES]")
}

func TestMarkdownNotReadyAndEmptyPeriod(t *testing.T) {
	out := Markdown(session.New(session.Config{}).Snapshot())
	assert.Contains(t, out, "- none loaded")
	assert.Contains(t, out, "Load an orders file")

	s := loadedSession(t)
	s.SetPeriod("yearly:2020")
	out = Markdown(s.Snapshot())
	assert.Contains(t, out, "No data available for the selected period.")

	s.SetPeriod("monthly:2024-02")
	out = Markdown(s.Snapshot())
	assert.Contains(t, out, "r=N/A (n=1)")
	assert.Contains(t, out, "| Spend | 0.0000 |")
}
