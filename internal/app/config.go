package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	PipelinePath string // .hcl file or directory
	EventPath    string // release-event JSON payload, optional
	ArtifactsDir string // root directory for per-run artifact stores
	ReportPath   string // run report destination, empty disables

	LogFormat       string
	LogLevel        string
	WorkerCount     int
	HealthcheckPort int
	DryRun          bool
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	return &cfg, nil
}
