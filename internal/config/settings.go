package config

import (
	"errors"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jjansen/chatpilot/internal/output"
	"gopkg.in/yaml.v3"
)

// Settings defines the application-level configuration, as opposed to the
// per-service profiles. Values will be taken from a settings yml file or
// environment variables or both.
type Settings struct {
	// ProfileDir is the persistent browser profile directory that retains
	// login state between runs.
	ProfileDir    string              `yaml:"profile_dir" env:"CHATPILOT_PROFILE_DIR" env-default:"./browser-data"`
	UserAgent     string              `yaml:"user_agent" env:"CHATPILOT_USER_AGENT" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	Headless      bool                `yaml:"headless" env:"CHATPILOT_HEADLESS" env-default:"false"`
	MaxRunMinutes int                 `yaml:"max_run_minutes" env:"CHATPILOT_MAX_RUN_MINUTES" env-default:"60"`
	DebugDir      string              `yaml:"debug_dir" env:"CHATPILOT_DEBUG_DIR" env-default:"debug"`
	Writer        output.WriterConfig `yaml:"writer"`
}

// LoadSettings reads the settings from the given yml file, falling back to
// environment variables and defaults if the file does not exist.
func LoadSettings(path string) (*Settings, error) {
	var settings Settings
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cleanenv.ReadEnv(&settings); err != nil {
				return nil, err
			}
			return &settings, nil
		}
		return nil, err
	}
	if err := cleanenv.ReadConfig(path, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SampleYAML renders the settings as yml, used to bootstrap a settings file.
func (s *Settings) SampleYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
