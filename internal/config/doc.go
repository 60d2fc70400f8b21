package config

// Package config loads pipeline and front-end settings from defaults, an
// optional TOML file, a .env file and MASHUP_* environment variables.
