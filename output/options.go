package output

// VerbosityLevel controls output detail.
type VerbosityLevel int

const (
	// VerbosityDefault shows the transformed program only.
	VerbosityDefault VerbosityLevel = iota
	// VerbosityVerbose adds pass statistics and summary info.
	VerbosityVerbose
	// VerbosityDebug adds timestamps and per-block diagnostics.
	VerbosityDebug
)
