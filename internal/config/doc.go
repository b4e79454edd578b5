// Package config loads search configurations and component catalogues.
//
// Both are YAML documents. Each is checked twice: against an embedded CUE
// schema (schema.cue) for shape and enum rules, then decoded with
// yaml.v3 KnownFields so a misspelt key is an error rather than a silent
// default.
//
// A configuration looks like:
//
//	components: [Fe+2, e-, H+]
//	databases: [reactions.db, local.txt]
//	catalogue: elements.yaml
//	solids: exclude-cr
//	redox:
//	  nitrogen: false
//	excluded_couples: [SO4-2]
//
// Relative paths are resolved against the directory of the configuration
// file.
package config
