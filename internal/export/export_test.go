package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/adcorr-cli/internal/align"
	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

func sampleTable() *align.Table {
	orders := []models.OrderRow{{Day: "2024-01-01", Orders: 2}, {Day: "2024-01-02", Orders: 4}}
	meta := align.Source{Platform: "Meta", Rows: []models.AdRow{
		{Day: "2024-01-01", Metrics: map[string]float64{"Spend": 10}},
		{Day: "2024-01-02", Metrics: map[string]float64{"Spend": 30}},
	}}
	google := align.Source{Platform: "Google", Rows: []models.AdRow{
		{Day: "2024-01-01", Metrics: map[string]float64{"Spend": 5.5}},
	}}
	return align.Align(orders, meta, google)
}

func TestGridLeavesAbsentBlank(t *testing.T) {
	header, records := Grid(sampleTable())
	assert.Equal(t, []string{"Day", "Orders", "Spend", "Meta Spend", "Google Spend"}, header)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"2024-01-01", "2", "15.5", "10", "5.5"}, records[0])
	assert.Equal(t, []string{"2024-01-02", "4", "30", "30", ""}, records[1])
}

func TestWriteCSVWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(), true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	recs, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, "Day", recs[0][0])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleTable()))
	var got align.Table
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"Meta", "Google"}, got.Platforms)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, 15.5, got.Rows[0].Values["Spend"])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Aligned")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Day", "Orders", "Spend", "Meta Spend", "Google Spend"}, rows[0])
	assert.Equal(t, []string{"2024-01-01", "2", "15.5", "10", "5.5"}, rows[1])
	assert.Equal(t, []string{"2024-01-02", "4", "30", "30"}, rows[2])
}

func TestWriteSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")
	require.NoError(t, ToFile(ctx, path, SQLite, sampleTable()))
	// a second export replaces the first
	require.NoError(t, ToFile(ctx, path, SQLite, sampleTable()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var days, values int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM aligned_days`).Scan(&days))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM aligned_values`).Scan(&values))
	assert.Equal(t, 2, days)
	assert.Equal(t, 5, values)

	var v float64
	require.NoError(t, db.QueryRow(`SELECT value FROM aligned_values WHERE day = ? AND key = ?`, "2024-01-02", "Meta Spend").Scan(&v))
	assert.Equal(t, 30.0, v)
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("", "out/report.XLSX")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	f, err = FormatFor("", "out.db")
	require.NoError(t, err)
	assert.Equal(t, SQLite, f)
	f, err = FormatFor("json", "whatever.csv")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)
	f, err = FormatFor("", "daily.TSV")
	require.NoError(t, err)
	assert.Equal(t, TSV, f)
	f, err = FormatFor("", "daily.txt")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	_, err = FormatFor("parquet", "")
	assert.Error(t, err)
}

func TestToFileTSVUsesTabs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "daily.tsv")
	f, err := FormatFor("", path)
	require.NoError(t, err)
	require.NoError(t, ToFile(context.Background(), path, f, sampleTable()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = '\t'
	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"Day", "Orders", "Spend", "Meta Spend", "Google Spend"}, recs[0])
	assert.Equal(t, []string{"2024-01-01", "2", "15.5", "10", "5.5"}, recs[1])
	assert.NotContains(t, string(raw), ",")
}
