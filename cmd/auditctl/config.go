package main

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultProfile = "default"

type configProfile struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token,omitempty"`
}

type configFile struct {
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".auditdesk", "config.yaml"), nil
}

// readConfig returns an empty config when the file does not exist.
func readConfig() (*configFile, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg := &configFile{}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *configFile) profileName() string {
	switch {
	case flagProfile != "":
		return flagProfile
	case c.ActiveProfile != "":
		return c.ActiveProfile
	default:
		return defaultProfile
	}
}

// resolveConfig fills flagURL and flagToken. A flag wins over the
// environment, which wins over the config file.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("AUDITDESK_URL"); v != "" {
			flagURL = v
		}
	}

	if flagToken == "" {
		flagToken = os.Getenv("AUDITDESK_TOKEN")
	}

	cfg, err := readConfig()
	if err != nil {
		return
	}

	p, ok := cfg.Profiles[cfg.profileName()]
	if !ok {
		return
	}

	if flagURL == defaultURL && p.URL != "" {
		flagURL = p.URL
	}

	if flagToken == "" {
		flagToken = p.Token
	}
}

// saveSession stores url and token under the selected profile. An empty
// token signs the profile out.
func saveSession(url, token string) (string, error) {
	cfg, err := readConfig()
	if err != nil {
		return "", err
	}

	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}

	name := cfg.profileName()
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = name
	}

	cfg.Profiles[name] = configProfile{URL: url, Token: token}

	path, err := configPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}
