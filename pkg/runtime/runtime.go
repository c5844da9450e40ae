package runtime

// Build information, set with -ldflags at release time.
var (
	Version   = "0.0.0-dev"
	GitCommit = "unknown"
	Timestamp = "unknown"
)
