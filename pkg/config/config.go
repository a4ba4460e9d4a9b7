package config

// Config holds all runtime configuration
type Config struct {
	// Analysis settings
	NonFilterableTypes []string
	Concurrency        int

	// Reporting settings
	OutputDir       string
	Formats         []string
	MinCoverageWarn float64 // reporting policy only, never part of coverage status

	// Baseline settings
	BaselinePath   string
	UpdateBaseline bool
	FailOnFindings bool

	// Server settings
	ServerPort     int
	RateLimitRPS   int
	MaxUploadBytes int64
	AllowedOrigins []string

	// Operational flags
	Verbose bool
	DryRun  bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NonFilterableTypes: []string{"text", "single_value", "single_number"},
		Concurrency:        4,
		OutputDir:          "./report",
		Formats:            []string{"json"},
		MinCoverageWarn:    0.75,
		BaselinePath:       "",
		UpdateBaseline:     false,
		FailOnFindings:     false,
		ServerPort:         8080,
		RateLimitRPS:       10,
		MaxUploadBytes:     8 << 20, // 8 MiB per dashboard file
		AllowedOrigins:     []string{"*"},
		Verbose:            false,
		DryRun:             false,
	}
}
