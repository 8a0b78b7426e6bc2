package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "fail_fast", cfg.Compute.Mode)
				assert.Equal(t, 1, cfg.Compute.Workers)
				assert.Equal(t, "vs.csv", cfg.Data.InputFile)
				assert.Equal(t, "2006-01-02", cfg.Data.DateFormat)
				assert.False(t, cfg.Store.Enabled)
				assert.Equal(t, "vstoxx_index", cfg.Store.Table)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
compute:
  mode: collect_all
  workers: 4
data:
  input_file: /srv/data/vs.csv
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "collect_all", cfg.Compute.Mode)
				assert.Equal(t, 4, cfg.Compute.Workers)
				assert.Equal(t, "/srv/data/vs.csv", cfg.Data.InputFile)
			},
		},
		{
			name: "env overrides file",
			file: `
server:
  port: 9090
logging:
  level: warn
`,
			env: map[string]string{
				"VSTOXX_SERVER_PORT":     "7000",
				"VSTOXX_COMPUTE_WORKERS": "8",
				"VSTOXX_COMPUTE_MODE":    "COLLECT_ALL",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 8, cfg.Compute.Workers)
				assert.Equal(t, "collect_all", cfg.Compute.Mode)
			},
		},
		{
			name: "store enabled through env",
			env: map[string]string{
				"VSTOXX_STORE_ENABLED":      "true",
				"VSTOXX_STORE_POSTGRES_DSN": "postgres://u:p@localhost:5432/vstoxx",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Store.Enabled)
				assert.Equal(t, "postgres://u:p@localhost:5432/vstoxx", cfg.Store.PostgresDSN)
			},
		},
		{
			name:    "store enabled without dsn",
			env:     map[string]string{"VSTOXX_STORE_ENABLED": "true"},
			wantErr: "PostgresDSN",
		},
		{
			name:    "unknown compute mode",
			file:    "compute:\n  mode: retry\n",
			wantErr: "Compute.Mode",
		},
		{
			name:    "invalid port",
			env:     map[string]string{"VSTOXX_SERVER_PORT": "70000"},
			wantErr: "Server.Port",
		},
		{
			name:    "zero workers",
			env:     map[string]string{"VSTOXX_COMPUTE_WORKERS": "0"},
			wantErr: "Compute.Workers",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"VSTOXX_SERVER_PORT": "eighty"},
			wantErr: "from env",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Logging.Level = "verbose"
	cfg.Telemetry.TraceExporter = "jaeger"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Server.Port")
	assert.Contains(t, err.Error(), "Logging.Level")
	assert.Contains(t, err.Error(), "Telemetry.TraceExporter")
}

func TestPaths(t *testing.T) {
	p := NewPaths("/srv/vstoxx", "/var/log/vstoxx/app.log")

	assert.Equal(t, "/srv/vstoxx/vs.csv", p.DataFile("vs.csv"))
	assert.Equal(t, "/tmp/other.csv", p.DataFile("/tmp/other.csv"))
	assert.Equal(t, "/srv/vstoxx/reports/out.xlsx", p.ReportFile("out.xlsx"))
	assert.Equal(t, "", p.ReportFile(""))
	assert.Equal(t, "/var/log/vstoxx", p.LogsDir)

	def := NewPaths("", "")
	assert.Equal(t, "vs.csv", def.DataFile("vs.csv"))
	assert.Equal(t, "logs", def.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	p := NewPaths(filepath.Join(root, "data"), filepath.Join(root, "logs", "app.log"))

	require.NoError(t, p.EnsureDirectories())
	assert.True(t, FileExists(p.ReportsDir))
	assert.True(t, FileExists(p.LogsDir))
	assert.False(t, FileExists(filepath.Join(root, "missing")))
}
