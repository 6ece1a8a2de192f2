// Package config loads, normalizes, and validates cinematch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and honours
// environment fallbacks such as TMDB_API_KEY and DATABASE_URL. The Config type
// centralizes every knob the batch commands need: report and checkpoint
// directories, catalog and oracle credentials, the local database, and the
// scoring weights.
//
// Credentials are not required by Validate. Commands that talk to TMDB or the
// database call RequireTMDB or RequireDatabase before doing so.
package config
