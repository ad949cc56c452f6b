// Package domain holds the agent configuration document.
package domain

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"clinic_marketing_backend/internal/leads/scoring"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Doctor is one bookable doctor the agent may recommend.
type Doctor struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Phone    string `json:"phone" yaml:"phone"`
	WhatsApp string `json:"whatsapp" yaml:"whatsapp"`
}

// Surgery is one procedure in the clinic catalog.
type Surgery struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// PlatformSettings toggles the channels the agent answers on.
type PlatformSettings struct {
	WhatsApp  bool `json:"whatsapp" yaml:"whatsapp"`
	Telegram  bool `json:"telegram" yaml:"telegram"`
	Facebook  bool `json:"facebook" yaml:"facebook"`
	Instagram bool `json:"instagram" yaml:"instagram"`
}

// Config is the singleton agent configuration.
type Config struct {
	SystemPrompt     string           `json:"system_prompt" yaml:"system_prompt"`
	Doctors          []Doctor         `json:"doctors" yaml:"doctors"`
	Surgeries        []Surgery        `json:"surgeries" yaml:"surgeries"`
	ScoringWeights   scoring.Weights  `json:"scoring_weights" yaml:"scoring_weights"`
	PlatformSettings PlatformSettings `json:"platform_settings" yaml:"platform_settings"`
	UpdatedAt        time.Time        `json:"updated_at" yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse default ai config: %w", err)
	}
	return cfg, nil
}
