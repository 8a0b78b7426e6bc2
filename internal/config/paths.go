package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths resolves data, report and log locations.
// Absolute names are used as given; relative names are joined to their base.
type Paths struct {
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// NewPaths roots report files under dataDir/reports and logs next to logFile
func NewPaths(dataDir, logFile string) *Paths {
	if dataDir == "" {
		dataDir = "."
	}
	logsDir := "logs"
	if logFile != "" {
		logsDir = filepath.Dir(logFile)
	}
	return &Paths{
		DataDir:    dataDir,
		ReportsDir: filepath.Join(dataDir, "reports"),
		LogsDir:    logsDir,
	}
}

// DataFile resolves an input file name
func (p *Paths) DataFile(name string) string {
	return resolve(p.DataDir, name)
}

// ReportFile resolves an output file name
func (p *Paths) ReportFile(name string) string {
	return resolve(p.ReportsDir, name)
}

func resolve(base, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(base, name)
}

// EnsureDirectories creates the report and log directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
