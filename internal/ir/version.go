package ir

// Version constants recorded alongside rewrite journals.
const (
	// IRVersion is the snapshot schema version.
	IRVersion = "1"

	// EngineVersion is the irx rewrite engine version.
	EngineVersion = "0.1.0"
)
