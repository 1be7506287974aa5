package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEvents are fired, in order, once the graphs are loaded.
var DefaultEvents = []string{"Awake", "Start"}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // .hcl and packed graph files, or a directory of them

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Events fired after loading. OnDestroy is fired on shutdown.
	Events []string
	// Watch reloads graphs on file system events; PollInterval, when
	// positive, also polls their timestamps.
	Watch        bool
	PollInterval time.Duration

	SocketIOURL       string
	SocketIONamespace string
	SocketIOEvents    []string
	SocketIOInsecure  bool

	// PackOutput, when set, writes every loaded graph as a packed snapshot
	// into this directory instead of running it.
	PackOutput string
}

// Serving reports whether the app keeps running after the start events.
func (c *Config) Serving() bool {
	return c.Watch || c.PollInterval > 0 || c.SocketIOURL != ""
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval must not be negative, got %s", cfg.PollInterval)
	}
	if cfg.Events == nil {
		cfg.Events = append([]string(nil), DefaultEvents...)
	}
	if cfg.SocketIOURL == "" && len(cfg.SocketIOEvents) > 0 {
		return nil, errors.New("socket.io events need a socket.io URL")
	}
	return &cfg, nil
}

// FileConfig is the YAML configuration file. Values given on the command
// line take precedence.
type FileConfig struct {
	Graph           string   `yaml:"graph"`
	HealthcheckPort int      `yaml:"healthcheck_port"`
	Events          []string `yaml:"events"`
	Watch           bool     `yaml:"watch"`
	PollInterval    string   `yaml:"poll_interval"`
	PackOutput      string   `yaml:"pack_output"`
	Log             struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"log"`
	SocketIO struct {
		URL                string   `yaml:"url"`
		Namespace          string   `yaml:"namespace"`
		Events             []string `yaml:"events"`
		InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
	} `yaml:"socketio"`
}

// LoadFileConfig reads a YAML configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// ApplyTo copies file values into cfg for every setting whose name is not
// in explicit. Setting names match the command line flags.
func (fc *FileConfig) ApplyTo(cfg *Config, explicit map[string]bool) error {
	set := func(name string) bool { return !explicit[name] }

	if fc.Graph != "" && set("graph") && cfg.GraphPath == "" {
		cfg.GraphPath = fc.Graph
	}
	if fc.HealthcheckPort != 0 && set("healthcheck-port") {
		cfg.HealthcheckPort = fc.HealthcheckPort
	}
	if fc.Events != nil && set("events") {
		cfg.Events = fc.Events
	}
	if fc.Watch && set("watch") {
		cfg.Watch = true
	}
	if fc.PollInterval != "" && set("poll-interval") {
		d, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if fc.PackOutput != "" && set("pack-out") {
		cfg.PackOutput = fc.PackOutput
	}
	if fc.Log.Format != "" && set("log-format") {
		cfg.LogFormat = fc.Log.Format
	}
	if fc.Log.Level != "" && set("log-level") {
		cfg.LogLevel = fc.Log.Level
	}
	if fc.SocketIO.URL != "" && set("socketio-url") {
		cfg.SocketIOURL = fc.SocketIO.URL
	}
	if fc.SocketIO.Namespace != "" && set("socketio-namespace") {
		cfg.SocketIONamespace = fc.SocketIO.Namespace
	}
	if fc.SocketIO.Events != nil && set("socketio-events") {
		cfg.SocketIOEvents = fc.SocketIO.Events
	}
	if fc.SocketIO.InsecureSkipVerify && set("socketio-insecure") {
		cfg.SocketIOInsecure = true
	}
	return nil
}
