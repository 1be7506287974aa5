package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/ceresflow/internal/app"
	"github.com/specialistvlad/ceresflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantExit bool
		wantCode int
		check    func(t *testing.T, cfg *app.Config)
	}{
		{
			name:     "no arguments prints usage",
			args:     nil,
			wantExit: true,
		},
		{
			name:     "help",
			args:     []string{"-h"},
			wantExit: true,
		},
		{
			name: "positional path with defaults",
			args: []string{"graphs"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "graphs", cfg.GraphPath)
				assert.Equal(t, "text", cfg.LogFormat)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, app.DefaultEvents, cfg.Events)
				assert.False(t, cfg.Serving())
			},
		},
		{
			name: "graph flag wins over positional",
			args: []string{"-g", "short.hcl", "-graph", "long.hcl", "positional.hcl"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "long.hcl", cfg.GraphPath)
			},
		},
		{
			name: "serving flags",
			args: []string{
				"-watch", "-poll-interval", "250ms", "-events", "Awake, Start,,Ready",
				"-socketio-url", "http://localhost:3000", "-socketio-events", "Hit,Heal",
				"-socketio-insecure", "-log-format", "JSON", "-log-level", "Debug", "g.hcl",
			},
			check: func(t *testing.T, cfg *app.Config) {
				assert.True(t, cfg.Watch)
				assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
				assert.Equal(t, []string{"Awake", "Start", "Ready"}, cfg.Events)
				assert.Equal(t, "http://localhost:3000", cfg.SocketIOURL)
				assert.Equal(t, "/", cfg.SocketIONamespace)
				assert.Equal(t, []string{"Hit", "Heal"}, cfg.SocketIOEvents)
				assert.True(t, cfg.SocketIOInsecure)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.True(t, cfg.Serving())
			},
		},
		{
			name: "empty events",
			args: []string{"-events", "", "g.hcl"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Empty(t, cfg.Events)
			},
		},
		{
			name: "pack output",
			args: []string{"-pack-out", "out", "g.hcl"},
			check: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "out", cfg.PackOutput)
			},
		},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2},
		{name: "bad log format", args: []string{"-log-format", "xml", "g.hcl"}, wantCode: 2},
		{name: "bad log level", args: []string{"-log-level", "loud", "g.hcl"}, wantCode: 2},
		{name: "negative poll interval", args: []string{"-poll-interval", "-1s", "g.hcl"}, wantCode: 2},
		{name: "socket events without url", args: []string{"-socketio-events", "Hit", "g.hcl"}, wantCode: 2},
		{name: "missing config file", args: []string{"-config", "missing.yaml", "g.hcl"}, wantCode: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)
			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			require.NotNil(t, cfg)
			tc.check(t, cfg)
		})
	}
}

func TestParseConfigFile(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"ceresflow.yaml": `
graph: from-file
events: [Start]
log:
  level: debug
  format: json
`,
		"bad.yaml": "poll_interval: soon\n",
	})
	path := filepath.Join(dir, "ceresflow.yaml")

	cfg, exit, err := Parse([]string{"-config", path, "-log-level", "warn"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "from-file", cfg.GraphPath)
	assert.Equal(t, []string{"Start"}, cfg.Events)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, _, err = Parse([]string{"-config", path, "cli-path"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "cli-path", cfg.GraphPath)

	_, _, err = Parse([]string{"-config", filepath.Join(dir, "bad.yaml"), "g.hcl"}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "poll_interval")
}
