package config

import "runtime"

const (
	defaultWarehouseDir       = "~/.local/share/hopper/warehouse"
	defaultReportDir          = "~/.local/share/hopper/reports"
	defaultLogDir             = "~/.local/share/hopper/logs"
	defaultLogFormat          = "text"
	defaultLogLevel           = "info"
	defaultExtractTimeout     = 30
	defaultLoadTimeout        = 120
	defaultRejectionThreshold = 0.5
	defaultLoadMode           = "append"
	defaultChunkSize          = 1000
	defaultCoerceTolerance    = 1e-6
)

// Default returns a Config populated with repository defaults. Source,
// mapping, and rule defaults that depend on user input are filled during
// normalize so a user-supplied section fully replaces them.
func Default() Config {
	return Config{
		Paths: Paths{
			WarehouseDir: defaultWarehouseDir,
			ReportDir:    defaultReportDir,
			LogDir:       defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			WorkerCount:    runtime.NumCPU(),
			ExtractTimeout: defaultExtractTimeout,
			LoadTimeout:    defaultLoadTimeout,
		},
		Validation: Validation{
			RejectionThreshold: defaultRejectionThreshold,
		},
		Transform: Transform{
			Tolerance: defaultCoerceTolerance,
		},
		Load: LoadSettings{
			Mode:      defaultLoadMode,
			ChunkSize: defaultChunkSize,
		},
	}
}
