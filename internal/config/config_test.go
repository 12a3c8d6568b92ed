package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelflife/domain/stability"
	"shelflife/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "ANALYSIS_WORKERS", "MIN_TIMEPOINTS", "MIN_R_SQUARED", "SPEC_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 3, cfg.Analysis.Criteria.MinTimepoints)
	assert.Equal(t, 0.95, cfg.Analysis.Criteria.MinRSquared)
	assert.Equal(t, 90.0, cfg.Analysis.DefaultSpecLimit)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shelflife?sslmode=disable")
	t.Setenv("ANALYSIS_WORKERS", "2")
	t.Setenv("MIN_R_SQUARED", "0.9")
	t.Setenv("READ_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, 0.9, cfg.Analysis.Criteria.MinRSquared)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MIN_R_SQUARED", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestParseConditions(t *testing.T) {
	table, err := ParseConditions(strings.NewReader(`
conditions:
  5C: long_term
  25C_60RH: Long-Term
  40C_75RH: accelerated
`))
	require.NoError(t, err)
	assert.Equal(t, stability.CategoryLongTerm, table["5C"])
	assert.Equal(t, stability.CategoryLongTerm, table["25C_60RH"])
	assert.Equal(t, stability.CategoryAccelerated, table["40C_75RH"])
}

func TestParseConditions_RejectsUnknownCategory(t *testing.T) {
	_, err := ParseConditions(strings.NewReader("conditions:\n  30C_65RH: intermediate\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLoadConditions(t *testing.T) {
	table, err := LoadConditions("")
	require.NoError(t, err)
	assert.Equal(t, stability.DefaultConditions(), table)

	path := filepath.Join(t.TempDir(), "conditions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conditions:\n  5C: long_term\n"), 0o644))

	table, err = LoadConditions(path)
	require.NoError(t, err)
	assert.Len(t, table, 4)
	assert.Equal(t, stability.CategoryLongTerm, table["5C"])

	_, err = LoadConditions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
