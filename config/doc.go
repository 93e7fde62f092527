// Package config loads livepage configuration.
//
// It uses Viper to read a YAML file and godotenv to load .env files, then
// overlays environment variables carrying the service prefix. A variable such
// as LIVEPAGE_PAGES_BUFFER_SIZE overrides pages.buffer_size.
//
// # Usage
//
//	var cfg app.Config
//	err := config.LoadConfig("livepage", &cfg, config.WithEnvPrefix("LIVEPAGE"))
package config
