package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

func ad(day string, m map[string]float64) models.AdRow {
	return models.AdRow{Day: day, Metrics: m}
}

func TestAlignOuterJoinAndBlend(t *testing.T) {
	orders := []models.OrderRow{{Day: "2024-01-02", Orders: 5}, {Day: "2024-01-04", Orders: 1}}
	meta := Source{Platform: "Meta", Columns: []string{"Spend", "Transactions"}, Rows: []models.AdRow{
		ad("2024-01-01", map[string]float64{"Spend": 10, "Transactions": 2}),
		ad("2024-01-02", map[string]float64{"Spend": 20}),
	}}
	google := Source{Platform: "Google", Columns: []string{"Spend"}, Rows: []models.AdRow{
		ad("2024-01-02", map[string]float64{"Spend": 7}),
		ad("2024-01-03", map[string]float64{"Spend": 3}),
	}}

	tbl := Align(orders, meta, google)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, tbl.Days())
	assert.Equal(t, []string{"Meta", "Google"}, tbl.Platforms)
	assert.Equal(t, []string{"Spend", "Transactions"}, tbl.Metrics)

	first := tbl.Rows[0]
	assert.Equal(t, 0, first.Orders)
	assert.Equal(t, 10.0, first.Value("Spend"))
	assert.Equal(t, 2.0, first.Value("Transactions"))
	assert.False(t, first.Has("Google Spend"))

	second := tbl.Rows[1]
	assert.Equal(t, 5, second.Orders)
	assert.Equal(t, 27.0, second.Value("Spend"))
	assert.True(t, second.Has("Transactions"), "blended keys exist on every day")
	assert.Zero(t, second.Value("Transactions"))
	assert.False(t, second.Has("Meta Transactions"))

	last := tbl.Rows[3]
	assert.Equal(t, 1, last.Orders)
	assert.Zero(t, last.Value("Spend"))
	assert.Len(t, last.Values, 2)

	assert.Equal(t, []string{"Spend", "Transactions", "Meta Spend", "Meta Transactions", "Google Spend"}, tbl.Keys())
}

func TestAlignBlendEqualsPlatformSum(t *testing.T) {
	meta := Source{Platform: "Meta", Rows: []models.AdRow{
		ad("2024-02-01", map[string]float64{"Spend": 1.5, "Reach": 100}),
		ad("2024-02-02", map[string]float64{"Spend": 2.5}),
	}}
	google := Source{Platform: "Google", Rows: []models.AdRow{
		ad("2024-02-02", map[string]float64{"Spend": 4, "Reach": 50}),
	}}
	tbl := Align(nil, meta, google)
	require.Len(t, tbl.Rows, 2)
	for _, row := range tbl.Rows {
		for _, m := range tbl.Metrics {
			want := row.Value(models.PrefixedKey("Meta", m)) + row.Value(models.PrefixedKey("Google", m))
			assert.Equalf(t, want, row.Value(m), "%s %s", row.Day, m)
		}
	}
}

func TestAlignSumsSamePlatformDuplicates(t *testing.T) {
	meta := Source{Platform: "Meta", Rows: []models.AdRow{
		ad("2024-03-01", map[string]float64{"Spend": 1}),
		ad("2024-03-01", map[string]float64{"Spend": 2}),
	}}
	tbl := Align([]models.OrderRow{{Day: "2024-03-01", Orders: 2}, {Day: "2024-03-01", Orders: 3}}, meta)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 3.0, tbl.Rows[0].Value("Meta Spend"))
	assert.Equal(t, 5, tbl.Rows[0].Orders)
}

func TestAlignDayCountMatchesUnion(t *testing.T) {
	orders := []models.OrderRow{{Day: "2024-01-01"}, {Day: "2024-01-05"}}
	meta := Source{Platform: "Meta", Rows: []models.AdRow{ad("2024-01-05", nil), ad("2024-01-06", nil)}}
	google := Source{Platform: "Google"}
	tbl := Align(orders, meta, google)
	assert.Equal(t, []string{"2024-01-01", "2024-01-05", "2024-01-06"}, tbl.Days())
	assert.Equal(t, []string{"Meta"}, tbl.Platforms)
	assert.Empty(t, tbl.Metrics)

	assert.Empty(t, Align(nil).Rows)
}
