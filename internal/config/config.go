package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted in the audio_backend field.
const (
	BackendMixer  = "mixer"
	BackendStream = "stream"
)

// Config holds application configuration
type Config struct {
	MusicDirectories []string `json:"music_directories"`
	DefaultVolume    float64  `json:"default_volume"`
	AudioBackend     string   `json:"audio_backend"`
	SeekStepSeconds  int      `json:"seek_step_seconds"`
	DatabasePath     string   `json:"database_path"`
	ShowOscilloscope bool     `json:"show_oscilloscope"`
	Theme            string   `json:"theme"`
	LogLevel         string   `json:"log_level"`
	KeyBindings      KeyMap   `json:"key_bindings"`
	DataDir          string   `json:"data_dir"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause   string `json:"play_pause"`
	Stop        string `json:"stop"`
	Next        string `json:"next"`
	Previous    string `json:"previous"`
	VolumeUp    string `json:"volume_up"`
	VolumeDown  string `json:"volume_down"`
	SeekForward string `json:"seek_forward"`
	SeekBack    string `json:"seek_back"`
	Shuffle     string `json:"shuffle"`
	Repeat      string `json:"repeat"`
	Quit        string `json:"quit"`
	Search      string `json:"search"`
	Library     string `json:"library"`
	Playlist    string `json:"playlist"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		MusicDirectories: []string{},
		DefaultVolume:    0.5,
		AudioBackend:     BackendMixer,
		SeekStepSeconds:  5,
		DatabasePath:     defaultDatabasePath(),
		ShowOscilloscope: true,
		Theme:            "dark",
		LogLevel:         "info",
		DataDir:          defaultDataDir(),
		KeyBindings: KeyMap{
			PlayPause:   " ",
			Stop:        "s",
			Next:        "n",
			Previous:    "p",
			VolumeUp:    "+",
			VolumeDown:  "-",
			SeekForward: "right",
			SeekBack:    "left",
			Shuffle:     "S",
			Repeat:      "r",
			Quit:        "q",
			Search:      "/",
			Library:     "l",
			Playlist:    "P",
		},
	}
}

// LoadConfig reads and unmarshals configuration from file. Fields left
// out of the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.AudioBackend != BackendMixer && config.AudioBackend != BackendStream {
		return nil, fmt.Errorf("unknown audio_backend %q", config.AudioBackend)
	}
	if config.SeekStepSeconds <= 0 {
		config.SeekStepSeconds = 5
	}
	if config.DefaultVolume < 0 || config.DefaultVolume > 1 {
		config.DefaultVolume = 0.5
	}

	return config, nil
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists
func LoadOrCreate(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return config, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if path := os.Getenv("CONCERTO_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "concerto", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "concerto", "config.json")
}

func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "concerto")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "concerto")
}

func defaultDatabasePath() string {
	return filepath.Join(defaultDataDir(), "catalog.db")
}
