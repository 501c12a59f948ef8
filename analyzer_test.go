package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallRunConfig(t *testing.T) *Config {
	t.Helper()
	cfg := createDefaultConfig()
	cfg.Zeros.Count = 12
	cfg.Zeros.Digits = 30
	cfg.Optimizer.LandscapePoints = 11
	cfg.Output.OutputDirectory = t.TempDir()
	cfg.Output.LogLevel = "error"
	cfg.Output.Summary = true
	calculateDynamicValues(cfg)
	return cfg
}

func TestStructuralAnalyzerRun(t *testing.T) {
	cfg := smallRunConfig(t)
	var out bytes.Buffer

	analyzer, err := NewStructuralAnalyzer(cfg, &out)
	require.NoError(t, err)

	res, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Zeros, 12)
	assert.GreaterOrEqual(t, res.OptimalC, cfg.Optimizer.Lower)
	assert.LessOrEqual(t, res.OptimalC, cfg.Optimizer.Upper)

	n := len(res.Zeros)
	assert.Len(t, res.Sequences.Phi, n)
	assert.Len(t, res.Sequences.Entropy, n)
	assert.Len(t, res.Sequences.Ratio, n)
	for i, phi := range res.Sequences.Phi {
		assert.NotZero(t, phi, "φ(%d)", i+1)
		assert.Greater(t, res.Sequences.Entropy[i], 0.0)
	}
	assert.GreaterOrEqual(t, res.Summary.Pearson, -1.0)
	assert.LessOrEqual(t, res.Summary.Pearson, 1.0)

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "optimal c: "))
	assert.True(t, strings.HasPrefix(lines[1], "("))
	assert.Contains(t, out.String(), "STRUCTURAL MAPPING - SUMMARY")
	assert.Contains(t, out.String(), res.RunID)

	require.Len(t, res.PlotPaths, 2)
	for _, path := range res.PlotPaths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Equal(t, filepath.Join(cfg.Output.OutputDirectory, "structural_k.png"), res.PlotPaths[0])
}

func TestStructuralAnalyzerWithoutPlots(t *testing.T) {
	cfg := smallRunConfig(t)
	cfg.Output.Plot = false
	cfg.Output.Summary = false
	cfg.Optimizer.LandscapePoints = 0

	var out bytes.Buffer
	analyzer, err := NewStructuralAnalyzer(cfg, &out)
	require.NoError(t, err)

	res, err := analyzer.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.PlotPaths)
	assert.Nil(t, res.Landscape)
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 2)

	entries, err := os.ReadDir(cfg.Output.OutputDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStructuralAnalyzerRejectsInvalidConfig(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Phase.Reg = 0
	_, err := NewStructuralAnalyzer(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestStructuralAnalyzerRequiresTwoZeros(t *testing.T) {
	cfg := smallRunConfig(t)
	cfg.Zeros.Count = 1

	analyzer, err := NewStructuralAnalyzer(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = analyzer.Run(context.Background())
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structural.yaml")
	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), path)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestPlotFlagDisablesFigures(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("plot")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)

	require.NoError(t, rootCmd.PersistentFlags().Set("plot", "false"))
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("plot", "true")
	})
	assert.False(t, settings.GetBool("output.plot"))
}
