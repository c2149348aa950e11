// Package config provides configuration management for the support triage agent.
// It uses viper for loading configuration from command-line flags, environment
// variables, and optionally config files.
//
// Configuration priority (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (with TRIAGE_ prefix)
// 3. Config file (if specified)
// 4. Defaults
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// AIModel is the model identifier to use for analyst requests.
	// Defaults to "claude-sonnet-4-5"
	AIModel string

	// MaxTokens is the maximum number of tokens to generate in analyst responses.
	// Defaults to 1024
	MaxTokens int

	// AnalystTimeout bounds each individual analyst call. A timed-out call
	// falls back to the conservative path rather than failing the turn.
	// Defaults to 15s
	AnalystTimeout time.Duration

	// MaxRefinementRounds caps how many batches of follow-up questions a
	// single conversation may go through. Defaults to 3
	MaxRefinementRounds int

	// CatalogPath is an optional path to a YAML cause catalog. When empty,
	// the embedded default catalog is used.
	CatalogPath string

	// CaseDir is the directory where escalated case records are written.
	// Defaults to "./cases"
	CaseDir string

	// ListenAddr is the HTTP API listen address for serve mode.
	// Defaults to ":8080"
	ListenAddr string

	// RedisAddr is the address of the Redis session store. When empty,
	// sessions are kept in memory.
	RedisAddr string

	// WelcomeMessage is displayed when the chat session starts.
	WelcomeMessage string

	// GoodbyeMessage is displayed when the chat session ends.
	GoodbyeMessage string
}

// Defaults returns a Config struct with all default values set.
func Defaults() *Config {
	return &Config{
		AIModel:             "claude-sonnet-4-5",
		MaxTokens:           1024,
		AnalystTimeout:      15 * time.Second,
		MaxRefinementRounds: 3,
		CatalogPath:         "",
		CaseDir:             "./cases",
		ListenAddr:          ":8080",
		RedisAddr:           "",
		WelcomeMessage:      "Hardware support triage (use 'ctrl+c' to quit, '/new' to restart)",
		GoodbyeMessage:      "Bye!",
	}
}

// LoadConfig loads and returns the configuration from viper.
// It sets up environment variable bindings with the TRIAGE_ prefix.
//
// The caller is expected to have set up viper with BindPFlag() calls
// for command-line flags before calling this function.
func LoadConfig() *Config {
	cfg := Defaults()

	viper.SetEnvPrefix("TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.IsSet("model") {
		cfg.AIModel = viper.GetString("model")
	}
	if viper.IsSet("maxTokens") {
		cfg.MaxTokens = viper.GetInt("maxTokens")
	}
	if viper.IsSet("analystTimeout") {
		cfg.AnalystTimeout = viper.GetDuration("analystTimeout")
	}
	if viper.IsSet("maxRefinementRounds") {
		cfg.MaxRefinementRounds = viper.GetInt("maxRefinementRounds")
	}
	if viper.IsSet("catalog") {
		cfg.CatalogPath = viper.GetString("catalog")
	}
	if viper.IsSet("caseDir") {
		cfg.CaseDir = viper.GetString("caseDir")
	}
	if viper.IsSet("listenAddr") {
		cfg.ListenAddr = viper.GetString("listenAddr")
	}
	if viper.IsSet("redisAddr") {
		cfg.RedisAddr = viper.GetString("redisAddr")
	}
	if viper.IsSet("welcomeMessage") {
		cfg.WelcomeMessage = viper.GetString("welcomeMessage")
	}
	if viper.IsSet("goodbyeMessage") {
		cfg.GoodbyeMessage = viper.GetString("goodbyeMessage")
	}

	return cfg
}
