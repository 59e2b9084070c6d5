package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		ID            string `yaml:"id"`
		Name          string `yaml:"name"`
		QuestionCount int    `yaml:"questionCount"`
		QuestionTime  string `yaml:"questionTime"`
		AdvanceDelay  string `yaml:"advanceDelay"`
		TTL           string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`
	Notifications struct {
		Publish bool `yaml:"publish"`
	} `yaml:"notifications"`
}

// Load reads YAML config from path. JWT_SECRET overrides auth.jwtSecret.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
