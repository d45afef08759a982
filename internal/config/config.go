package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/caarlos0/env/v11"
)

// DefaultModel is used by new narration profiles.
const DefaultModel = "gpt-4o-mini"

type Profile struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

// Viewer holds player and analysis settings. Zero values take defaults;
// environment variables override the file.
type Viewer struct {
	Assets          string  `json:"assets,omitempty" env:"STEPSCOPE_ASSETS"`
	SurfaceWidth    int     `json:"surface_width,omitempty" env:"STEPSCOPE_SURFACE_WIDTH"`
	SurfaceHeight   int     `json:"surface_height,omitempty" env:"STEPSCOPE_SURFACE_HEIGHT"`
	BaseFPS         float64 `json:"base_fps,omitempty" env:"STEPSCOPE_FPS"`
	DiffIntensity   float64 `json:"diff_intensity,omitempty" env:"STEPSCOPE_DIFF_INTENSITY"`
	LatentIntensity float64 `json:"latent_intensity,omitempty" env:"STEPSCOPE_LATENT_INTENSITY"`
	LatentGrid      int     `json:"latent_grid,omitempty" env:"STEPSCOPE_LATENT_GRID"`
	LatentStride    int     `json:"latent_stride,omitempty" env:"STEPSCOPE_LATENT_STRIDE"`
	Workers         int     `json:"workers,omitempty" env:"STEPSCOPE_WORKERS"`
	LogPath         string  `json:"log_path,omitempty" env:"STEPSCOPE_LOG"`
	LogLevel        string  `json:"log_level,omitempty" env:"STEPSCOPE_LOG_LEVEL"`
}

func (v *Viewer) defaults(home string) {
	if v.Assets == "" {
		v.Assets = filepath.Join("assets", "generated_sequences")
	}
	if v.SurfaceWidth <= 0 {
		v.SurfaceWidth = 512
	}
	if v.SurfaceHeight <= 0 {
		v.SurfaceHeight = 512
	}
	if v.BaseFPS <= 0 {
		v.BaseFPS = 30
	}
	if v.DiffIntensity <= 0 {
		v.DiffIntensity = 2
	}
	if v.LatentIntensity <= 0 {
		v.LatentIntensity = 2
	}
	if v.LatentGrid <= 0 {
		v.LatentGrid = 64
	}
	if v.LatentStride <= 0 {
		v.LatentStride = 4
	}
	if v.Workers <= 0 {
		v.Workers = 8
	}
	if v.LogPath == "" {
		v.LogPath = filepath.Join(home, "stepscope.log")
	}
	if v.LogLevel == "" {
		v.LogLevel = "info"
	}
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
	// Viewer is the persisted section. Settings returns the effective values.
	Viewer Viewer `json:"viewer"`

	currentProfile *Profile
	settings       Viewer
	path           string
}

// LoadConfig loads $STEPSCOPE_HOME/.stepscope/config.json, creating it with
// a default profile when missing.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return Load(configPath)
}

// Load reads the config file at configPath and applies the environment
// overlay.
func Load(configPath string) (*Config, error) {
	// Ensure config directory exists
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Load existing config or create default
	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.path = configPath

	// Validate and set current profile
	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	config.settings = config.Viewer
	if err := env.Parse(&config.settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	config.settings.defaults(filepath.Dir(configPath))

	return config, nil
}

// Settings returns the viewer settings after the environment overlay and
// defaults.
func (c *Config) Settings() Viewer {
	return c.settings
}

// SetAssets overrides the assets root for this run only.
func (c *Config) SetAssets(dir string) {
	if dir != "" {
		c.settings.Assets = dir
	}
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.APIKey != ""
}

func (c *Config) GetAPIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

func (c *Config) GetModel() string {
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return DefaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) GetBaseURL() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.BaseURL
}

// UseProfile makes name the active profile.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

func getConfigPath() (string, error) {
	var configDir string

	// Use STEPSCOPE_HOME if set, otherwise use user's home directory
	if home := os.Getenv("STEPSCOPE_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".stepscope", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	configDir := filepath.Dir(configPath)
	return os.MkdirAll(configDir, 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	// If config file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {Model: DefaultModel},
		},
		ActiveProfile: "default",
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Save writes the persisted sections back to the file the config came from.
// Environment overrides are not written.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		if configPath, err = getConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// If active profile doesn't exist, fall back to the first one by name
		names := c.ProfileNames()
		c.ActiveProfile = names[0]
		profile = c.Profiles[names[0]]
	}

	c.currentProfile = &profile
	return nil
}

// ProfileNames returns the profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
