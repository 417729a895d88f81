package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Server struct {
		Address        string   `json:"address"`
		AllowedOrigins []string `json:"allowedOrigins"`
	} `json:"server"`
	Database struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Dbname   string `json:"dbname"`
		Sslmode  string `json:"sslmode"`
	} `json:"database"`
	Classifier struct {
		URL            string `json:"url"`
		TimeoutSeconds int    `json:"timeoutSeconds"`
	} `json:"classifier"`
	Game struct {
		WordListPath string `json:"wordListPath"`
	} `json:"game"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open config %s: %w", path, err)
	}
	defer file.Close()

	cfg := &Config{}
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost:8080"
	}
	if cfg.Classifier.TimeoutSeconds <= 0 {
		cfg.Classifier.TimeoutSeconds = 3
	}
	return cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s "+
		"password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Dbname, c.Database.Sslmode)
}
