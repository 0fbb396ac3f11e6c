package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"onestopradio/internal/models"
)

// Backend role names used by the dev proxy routing table.
const (
	RoleAPI       = "api"
	RoleSignaling = "signaling"
	RoleMedia     = "media"
	RoleWebSocket = "websocket"
)

// Config represents configuration data for the operator console.
type Config struct {
	ListenAddr          string          `yaml:"listen_addr"`
	DataDirectory       string          `yaml:"data_directory"`
	LogLevel            string          `yaml:"log_level"`
	LogFormat           string          `yaml:"log_format"`
	PollIntervalSeconds int             `yaml:"poll_interval_seconds"`
	Backends            Backends        `yaml:"backends"`
	Services            []models.Target `yaml:"services"`
	Encoding            []models.Target `yaml:"encoding"`
	Meter               Meter           `yaml:"meter"`
	Proxy               Proxy           `yaml:"proxy"`
	Connectivity        Connectivity    `yaml:"connectivity"`
}

// Backend describes one backend role of the streaming platform.
type Backend struct {
	BaseURL     string `yaml:"base_url"`
	Label       string `yaml:"label"`
	ErrorPrefix string `yaml:"error_prefix"`
}

// Backends groups the four platform roles the console knows about.
type Backends struct {
	API       Backend `yaml:"api"`
	Signaling Backend `yaml:"signaling"`
	Media     Backend `yaml:"media"`
	WebSocket Backend `yaml:"websocket"`
}

// Meter configures the peak/level tracker and its development source.
type Meter struct {
	Simulate        bool    `yaml:"simulate"`
	DecayIntervalMS int     `yaml:"decay_interval_ms"`
	DecayStep       float64 `yaml:"decay_step"`
}

// Proxy configures the development reverse proxy listener.
type Proxy struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Connectivity configures the websocket-target reachability probe.
type Connectivity struct {
	Enabled         bool   `yaml:"enabled"`
	Target          string `yaml:"target"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":8090",
		DataDirectory:       filepath.Join(".dist", "data"),
		LogLevel:            "info",
		LogFormat:           "text",
		PollIntervalSeconds: 300,
		Backends: Backends{
			API: Backend{
				BaseURL:     "http://localhost:5000",
				Label:       "API Server (port 5000)",
				ErrorPrefix: "API Server Connection Error",
			},
			Signaling: Backend{
				BaseURL:     "http://localhost:3001",
				Label:       "Signaling Server (port 3001)",
				ErrorPrefix: "Signaling Server Connection Error",
			},
			Media: Backend{
				BaseURL:     "http://localhost:8080",
				Label:       "C++ Media Server (port 8080)",
				ErrorPrefix: "C++ Backend Connection Error",
			},
			WebSocket: Backend{
				BaseURL:     "ws://localhost:3001",
				Label:       "WebSocket Gateway (port 3001)",
				ErrorPrefix: "WebSocket Connection Error",
			},
		},
		Services: []models.Target{
			{ID: "api", Name: "API Server", URL: "http://localhost:5000/api/v1/health"},
			{ID: "signaling", Name: "Signaling Server", URL: "http://localhost:3001/api/health"},
			{ID: "media", Name: "C++ Media Server", URL: "http://localhost:8080/api/stats"},
			{ID: "streaming", Name: "Streaming Endpoints", URL: "http://localhost:3001/api/streaming"},
		},
		Encoding: []models.Target{
			{ID: "audio", Name: "Audio Pipeline", URL: "http://localhost:3001/api/audio"},
			{ID: "mixer", Name: "Mixer", URL: "http://localhost:8080/api/mixer"},
			{ID: "hls", Name: "HLS Packager", URL: "http://localhost:8080/api/hls"},
		},
		Meter: Meter{
			Simulate:        true,
			DecayIntervalMS: 50,
			DecayStep:       1,
		},
		Proxy: Proxy{
			Enabled:    false,
			ListenAddr: ":5173",
		},
		Connectivity: Connectivity{
			Enabled:         true,
			Target:          "localhost:3001",
			IntervalSeconds: 60,
			TimeoutSeconds:  4,
		},
	}
}

// Load reads configuration from a yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultConfig().DataDirectory
	}
	if cfg.PollIntervalSeconds < 0 {
		cfg.PollIntervalSeconds = 0
	}
	if cfg.Meter.DecayIntervalMS <= 0 {
		cfg.Meter.DecayIntervalMS = 50
	}
	if cfg.Meter.DecayStep <= 0 {
		cfg.Meter.DecayStep = 1
	}
	if cfg.Connectivity.IntervalSeconds <= 0 {
		cfg.Connectivity.IntervalSeconds = 60
	}
	if cfg.Connectivity.TimeoutSeconds <= 0 {
		cfg.Connectivity.TimeoutSeconds = 4
	}
	if cfg.Proxy.Enabled && cfg.Proxy.ListenAddr == "" {
		cfg.Proxy.ListenAddr = DefaultConfig().Proxy.ListenAddr
	}
	if len(cfg.Services) == 0 {
		return Config{}, errors.New("configuration must define at least one service target")
	}
	for _, t := range append(append([]models.Target{}, cfg.Services...), cfg.Encoding...) {
		if t.ID == "" {
			return Config{}, errors.New("each target must define an id")
		}
		if t.URL == "" {
			return Config{}, fmt.Errorf("target %s url is required", t.ID)
		}
	}
	return cfg, nil
}
