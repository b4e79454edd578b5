package ir

// Version constants for the record schema and search engine.
const (
	// IRVersion is the record schema version.
	IRVersion = "1"

	// EngineVersion is the dbsearch engine version.
	EngineVersion = "0.1.0"
)
