package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

func rows(days ...string) []models.AlignedRow {
	out := make([]models.AlignedRow, len(days))
	for i, d := range days {
		out[i] = models.AlignedRow{Day: d, Orders: i}
	}
	return out
}

func days(rs []models.AlignedRow) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Day
	}
	return out
}

func TestParse(t *testing.T) {
	cases := map[string]Period{
		"all":               {Kind: All},
		"":                  {Kind: All},
		"monthly:2024-03":   {Kind: Monthly, Year: 2024, Month: 3},
		"Quarterly:2023-q4": {Kind: Quarterly, Year: 2023, Quarter: 4},
		"yearly:2022":       {Kind: Yearly, Year: 2022},
	}
	for in, want := range cases {
		got, err := ParseStrict(in)
		require.NoErrorf(t, err, "spec %q", in)
		assert.Equalf(t, want, got, "spec %q", in)
		assert.Equal(t, want, Parse(in))
	}
}

func TestParseIsLenient(t *testing.T) {
	for _, in := range []string{"weekly:2024-W01", "monthly:2024-13", "quarterly:2024-Q5", "yearly:24", "2024"} {
		p := Parse(in)
		assert.Equalf(t, All, p.Kind, "spec %q", in)
		assert.Truef(t, p.Lenient, "spec %q", in)

		_, err := ParseStrict(in)
		assert.ErrorIsf(t, err, ErrUnknownPeriod, "spec %q", in)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"all", "monthly:2024-01", "quarterly:2024-Q2", "yearly:2024"} {
		assert.Equal(t, in, Parse(in).String())
	}
	assert.Equal(t, "January 2024", Parse("monthly:2024-01").Label())
	assert.Equal(t, "2024-Q2", Parse("quarterly:2024-Q2").Label())
}

func TestFilter(t *testing.T) {
	all := rows("2023-12-31", "2024-01-01", "2024-01-31", "2024-03-31", "2024-04-01", "2025-01-01")

	assert.Equal(t, all, Filter(all, Parse("all")))
	assert.Equal(t, all, Filter(all, Parse("bogus")))
	assert.Equal(t, []string{"2024-01-01", "2024-01-31"}, days(Filter(all, Parse("monthly:2024-01"))))
	assert.Equal(t, []string{"2024-01-01", "2024-01-31", "2024-03-31"}, days(Filter(all, Parse("quarterly:2024-Q1"))))
	assert.Equal(t, []string{"2024-04-01"}, days(Filter(all, Parse("quarterly:2024-Q2"))))
	assert.Equal(t, []string{"2024-01-01", "2024-01-31", "2024-03-31", "2024-04-01"}, days(Filter(all, Parse("yearly:2024"))))
	assert.Empty(t, Filter(all, Parse("monthly:2020-01")))
}

func TestOptionsNewestFirst(t *testing.T) {
	all := rows("2023-11-05", "2024-01-01", "2024-01-31", "2024-04-01")

	months := Options(all, Monthly)
	require.Len(t, months, 3)
	assert.Equal(t, "monthly:2024-04", months[0].String())
	assert.Equal(t, "November 2023", months[2].Label())

	quarters := Options(all, Quarterly)
	assert.Equal(t, []string{"2024-Q2", "2024-Q1", "2023-Q4"}, []string{quarters[0].Label(), quarters[1].Label(), quarters[2].Label()})

	years := Options(all, Yearly)
	require.Len(t, years, 2)
	assert.Equal(t, 2024, years[0].Year)

	assert.Nil(t, Options(all, All))
}
