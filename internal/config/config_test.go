package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/adcorr-cli/internal/ingest"
	"github.com/KaramelBytes/adcorr-cli/internal/metric"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dmy", c.DateOrder)
	assert.Equal(t, ".", c.DecimalSeparator)
	assert.Equal(t, []string{"Meta", "Google"}, c.Platforms)
	assert.Equal(t, metric.Spend, c.DefaultMetric)
	assert.Equal(t, filepath.Join(home, ".adcorr", "workspaces"), c.WorkspacesDir)
	assert.Equal(t, ingest.DefaultOptions(), c.IngestOptions())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("ADCORR_DATE_ORDER", "mdy")
	t.Setenv("ADCORR_DECIMAL_SEPARATOR", ",")
	t.Setenv("ADCORR_PLATFORMS", "Meta, TikTok")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Meta", "TikTok"}, c.Platforms)
	opt := c.IngestOptions()
	assert.Equal(t, ingest.MonthFirst, opt.DateOrder)
	assert.Equal(t, ',', opt.DecimalSeparator)
}

func TestLoadFileWithAliases(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := `date_order: dmy
aliases:
  - name: Spend
    aliases: ["Kosten"]
  - name: ROAS
    aliases: ["Return on ad spend"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	table, err := c.AliasTable()
	require.NoError(t, err)

	name, ok := table.Resolve("kosten")
	assert.True(t, ok)
	assert.Equal(t, metric.Spend, name)
	name, ok = table.Resolve("Return on ad spend")
	assert.True(t, ok)
	assert.Equal(t, "ROAS", name)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("date_order: ymd\nlog_format: xml\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_order must be one of: dmy, mdy")
	assert.Contains(t, err.Error(), "log_format must be one of: text, json")
}

func TestValidateRejectsConflictingAlias(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	c.Aliases = []metric.Entry{{Name: metric.Revenue, Aliases: []string{"Cost"}}}
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aliases")
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	c.DateOrder = "mdy"
	c.Platforms = []string{"Meta", "Google", "TikTok"}
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".adcorr", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mdy", again.DateOrder)
	assert.Equal(t, []string{"Meta", "Google", "TikTok"}, again.Platforms)
}
