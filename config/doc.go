// Package config loads voicepulse configuration from a YAML file, a .env file
// and the process environment using Viper and godotenv.
//
// Precedence, lowest first: registered defaults, the YAML file, then
// environment variables (including those loaded from .env). Environment keys
// are the upper-cased dotted path with dots replaced by underscores and an
// optional prefix, e.g. VOICEPULSE_PIPELINE_SENTIMENT_INTERVAL.
//
// Load wires the voicepulse defaults and prefix, then applies defaults and
// validation to the result:
//
//	cfg, err := config.Load("voicepulse", config.WithConfigFile("lecture.yml"))
package config
