package correlation

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

func TestPearsonDegenerateCases(t *testing.T) {
	r := Pearson(nil, nil)
	assert.Equal(t, Insufficient, r.Outcome)
	assert.True(t, math.IsNaN(Correlate([]float64{}, []float64{})))
	assert.True(t, math.IsNaN(Correlate([]float64{1}, []float64{2})))
	assert.Equal(t, "N/A", r.String())

	r = Pearson([]float64{5, 5, 5}, []float64{1, 2, 3})
	assert.Equal(t, NoCorrelation, r.Outcome)
	assert.Equal(t, 0.0, r.Value())
	assert.Equal(t, "0.0000", r.String())

	r = Pearson([]float64{0.1, 0.1, 0.1}, []float64{3, 1, 2})
	assert.Equal(t, NoCorrelation, r.Outcome)
}

func TestPearsonKnownValues(t *testing.T) {
	r := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.Equal(t, Correlated, r.Outcome)
	assert.Equal(t, 1.0, r.Value())

	r = Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	assert.InDelta(t, -1.0, r.Value(), 1e-12)

	r = Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 1, 4, 3, 5})
	assert.InDelta(t, 0.8, r.Value(), 1e-12)
	assert.Equal(t, "0.8000", r.String())
}

func TestPearsonLargeOffsetSeries(t *testing.T) {
	r := Pearson([]float64{1000000, 1000001, 1000002}, []float64{1, 2, 3})
	require.Equal(t, Correlated, r.Outcome)
	assert.InDelta(t, 1.0, r.Value(), 1e-9)

	r = Pearson([]float64{5000000, 5000003, 5000001, 5000004}, []float64{10, 40, 20, 50})
	require.Equal(t, Correlated, r.Outcome)
	assert.InDelta(t, 1.0, r.Value(), 1e-9)

	r = Pearson([]float64{2e6, 2e6 + 1, 2e6 - 1, 2e6}, []float64{4, 1, 3, 2})
	require.Equal(t, Correlated, r.Outcome)
	assert.InDelta(t, -2/math.Sqrt(10), r.Value(), 1e-9)
}

func TestPearsonTruncatesToShorter(t *testing.T) {
	r := Pearson([]float64{1, 2, 3, 100}, []float64{1, 2, 3})
	assert.Equal(t, 3, r.N)
	assert.InDelta(t, 1.0, r.Value(), 1e-12)
}

func TestPearsonSymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(40)
		a := make([]float64, n)
		b := make([]float64, n)
		for j := range a {
			a[j] = rng.NormFloat64() * 1000
			b[j] = a[j]*rng.Float64() + rng.NormFloat64()
		}
		ab, ba := Pearson(a, b), Pearson(b, a)
		assert.Equal(t, ab, ba)
		if ab.Outcome == Correlated {
			assert.GreaterOrEqual(t, ab.R, -1.0)
			assert.LessOrEqual(t, ab.R, 1.0)
		}
	}
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Pearson(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"insufficient","r":null,"n":0}`, string(b))

	b, err = json.Marshal(Pearson([]float64{1, 2}, []float64{2, 4}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"correlated","r":1,"n":2}`, string(b))
}

func alignedRows() []models.AlignedRow {
	return []models.AlignedRow{
		{Day: "2024-01-01", Orders: 1, Values: map[string]float64{"Spend": 10, "Reach": 5, "Google Spend": 10}},
		{Day: "2024-01-02", Orders: 2, Values: map[string]float64{"Spend": 20, "Reach": 5, "Meta Spend": 5, "Google Spend": 15}},
		{Day: "2024-01-03", Orders: 3, Values: map[string]float64{"Spend": 0, "Reach": 5, "Meta Spend": 0}},
		{Day: "2024-01-04", Orders: 4, Values: map[string]float64{"Spend": 40, "Reach": 5, "Meta Spend": 40}},
	}
}

func TestForPlatformUsesReportedDaysOnly(t *testing.T) {
	rows := alignedRows()

	meta, ok := ForPlatform(rows, "Meta", "Spend")
	require.True(t, ok)
	assert.Equal(t, 3, meta.N)
	want := Pearson([]float64{2, 3, 4}, []float64{5, 0, 40})
	assert.Equal(t, want, meta)

	google, ok := ForPlatform(rows, "Google", "Spend")
	require.True(t, ok)
	assert.Equal(t, 2, google.N)
	assert.InDelta(t, 1.0, google.Value(), 1e-12)

	_, ok = ForPlatform(rows, "TikTok", "Spend")
	assert.False(t, ok)
}

func TestSummaryOrdersByStrength(t *testing.T) {
	rows := alignedRows()
	got := Summary(rows, []string{"Reach", "Missing", "Spend", "Meta Spend"})
	require.Len(t, got, 4)
	// zero-filled Meta Spend tracks orders more closely than blended Spend
	assert.Equal(t, "Meta Spend", got[0].Key)
	assert.Equal(t, "Spend", got[1].Key)
	assert.Equal(t, "Reach", got[2].Key)
	assert.Equal(t, NoCorrelation, got[2].Result.Outcome)
	assert.Equal(t, "Missing", got[3].Key)
	assert.Equal(t, NoCorrelation, got[3].Result.Outcome)

	overall := Overall(rows, "Spend")
	assert.Equal(t, 4, overall.N)
	assert.Equal(t, got[1].Result, overall)
}
