package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full configuration", func(t *testing.T) {
		// Arrange
		args := []string{
			"-p", "pipeline.yaml",
			"-workers", "8",
			"-log-level", "DEBUG",
			"-log-format", "json",
			"-healthcheck-port", "8080",
			"data/a.csv", "data/b.csv",
		}

		// Act
		cfg, shouldExit, err := Parse(args, &bytes.Buffer{})

		// Assert
		require.NoError(t, err)
		assert.False(t, shouldExit)
		assert.Equal(t, "pipeline.yaml", cfg.PipelinePath)
		assert.Equal(t, []string{"data/a.csv", "data/b.csv"}, cfg.InputKeys)
		assert.Equal(t, 8, cfg.WorkerCount)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 8080, cfg.HealthcheckPort)
	})

	t.Run("storage query after separator", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-pipeline", "p.hcl", "--", "--datastream x.y.b1 --start 20220101 --end 20220102"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, []string{"--datastream x.y.b1 --start 20220101 --end 20220102"}, cfg.InputKeys)
	})

	t.Run("validate and watch need no inputs", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-p", "p.yaml", "-validate"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, cfg.ValidateOnly)

		cfg, _, err = Parse([]string{"-p", "p.yaml", "-watch", "incoming"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "incoming", cfg.WatchDir)
	})

	t.Run("usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, shouldExit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	tests := map[string]struct {
		args    []string
		wantMsg string
	}{
		"unknown flag":   {[]string{"-nope"}, "flag provided but not defined"},
		"no pipeline":    {[]string{"a.csv"}, "pipeline config is required"},
		"bad log format": {[]string{"-p", "p.yaml", "-log-format", "xml", "a.csv"}, "invalid log-format"},
		"bad log level":  {[]string{"-p", "p.yaml", "-log-level", "loud", "a.csv"}, "invalid log-level"},
		"no inputs":      {[]string{"-p", "p.yaml"}, "at least one input key"},
		"no workers":     {[]string{"-p", "p.yaml", "-workers", "0", "a.csv"}, "WorkerCount"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.wantMsg)
		})
	}
}
