// Package config loads the application configuration from a YAML file, an
// optional .env file and SNAPGRAM_* environment variables.
package config
