package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultModel       = "gpt-4o-mini"
	defaultPushoverURL = "https://api.pushover.net/1/messages.json"
	envPrefix          = "RORIPERSONA"
)

// Profile is one model endpoint. Model writes the persona's replies,
// JudgeModel grades them.
type Profile struct {
	APIKey     string `json:"api_key" mapstructure:"api_key"`
	BaseURL    string `json:"base_url,omitempty" mapstructure:"base_url"`
	Model      string `json:"model" mapstructure:"model"`
	JudgeModel string `json:"judge_model,omitempty" mapstructure:"judge_model"`
}

type AgentConfig struct {
	Name           string `json:"name" mapstructure:"name"`
	SummaryPath    string `json:"summary_path" mapstructure:"summary_path"`
	BioPath        string `json:"bio_path,omitempty" mapstructure:"bio_path"`
	MaxToolRounds  int    `json:"max_tool_rounds" mapstructure:"max_tool_rounds"`
	MaxAttempts    int    `json:"max_attempts" mapstructure:"max_attempts"`
	EvaluatorModel string `json:"evaluator_model,omitempty" mapstructure:"evaluator_model"`
	CallTimeout    string `json:"call_timeout" mapstructure:"call_timeout"`
	ToolTimeout    string `json:"tool_timeout" mapstructure:"tool_timeout"`
}

type PushoverConfig struct {
	Token string `json:"token,omitempty" mapstructure:"token"`
	User  string `json:"user,omitempty" mapstructure:"user"`
	URL   string `json:"url,omitempty" mapstructure:"url"`
}

type TwilioConfig struct {
	AccountSID string `json:"account_sid,omitempty" mapstructure:"account_sid"`
	AuthToken  string `json:"auth_token,omitempty" mapstructure:"auth_token"`
	From       string `json:"from,omitempty" mapstructure:"from"`
	To         string `json:"to,omitempty" mapstructure:"to"`
}

type NotifyConfig struct {
	Provider string         `json:"provider" mapstructure:"provider"` // log, pushover or twilio
	Timeout  string         `json:"timeout" mapstructure:"timeout"`
	Pushover PushoverConfig `json:"pushover" mapstructure:"pushover"`
	Twilio   TwilioConfig   `json:"twilio" mapstructure:"twilio"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file,omitempty" mapstructure:"file"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles" mapstructure:"profiles"`
	ActiveProfile string             `json:"active_profile" mapstructure:"active_profile"`
	Agent         AgentConfig        `json:"agent" mapstructure:"agent"`
	Notify        NotifyConfig       `json:"notify" mapstructure:"notify"`
	Log           LogConfig          `json:"log" mapstructure:"log"`

	currentProfile *Profile
	envAPIKey      string
	path           string
	fileOnly       *Config // values as read from the file, without env overrides
}

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the config file at path, creating a default one if it does
// not exist. Environment variables prefixed with RORIPERSONA_ override file values.
func LoadFrom(configPath string) (*Config, error) {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	cfg, err := decode(configPath, true)
	if err != nil {
		return nil, err
	}
	// Save writes these, so environment overrides stay out of the file
	fileOnly, err := decode(configPath, false)
	if err != nil {
		return nil, err
	}
	cfg.fileOnly = fileOnly

	cfg.path = configPath
	cfg.envAPIKey = os.Getenv("OPENAI_API_KEY")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return cfg, nil
}

func decode(configPath string, withEnv bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	setDefaults(v, filepath.Dir(configPath))

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("active_profile", "default")
	v.SetDefault("agent.name", "")
	v.SetDefault("agent.summary_path", filepath.Join(dir, "summary.txt"))
	v.SetDefault("agent.bio_path", filepath.Join(dir, "bio.txt"))
	v.SetDefault("agent.max_tool_rounds", 5)
	v.SetDefault("agent.max_attempts", 3)
	v.SetDefault("agent.evaluator_model", "")
	v.SetDefault("agent.call_timeout", "60s")
	v.SetDefault("agent.tool_timeout", "30s")
	v.SetDefault("notify.provider", "log")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("notify.pushover.token", "")
	v.SetDefault("notify.pushover.user", "")
	v.SetDefault("notify.pushover.url", defaultPushoverURL)
	v.SetDefault("notify.twilio.account_sid", "")
	v.SetDefault("notify.twilio.auth_token", "")
	v.SetDefault("notify.twilio.from", "")
	v.SetDefault("notify.twilio.to", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

func (c *Config) validate() error {
	for key, value := range map[string]string{
		"agent.call_timeout": c.Agent.CallTimeout,
		"agent.tool_timeout": c.Agent.ToolTimeout,
		"notify.timeout":     c.Notify.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}

	switch c.Notify.Provider {
	case "log", "pushover", "twilio":
	default:
		return fmt.Errorf("unknown notify provider %q", c.Notify.Provider)
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.GetAPIKey() != ""
}

func (c *Config) GetAPIKey() string {
	if c.currentProfile == nil || c.currentProfile.APIKey == "" {
		return c.envAPIKey
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

// EvaluatorModel picks the profile's judge model, then agent.evaluator_model,
// then the profile's reply model
func (c *Config) EvaluatorModel() string {
	if c.currentProfile != nil && c.currentProfile.JudgeModel != "" {
		return c.currentProfile.JudgeModel
	}
	if c.Agent.EvaluatorModel != "" {
		return c.Agent.EvaluatorModel
	}
	return c.GetModel()
}

func (c *Config) CallTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Agent.CallTimeout)
	return d
}

func (c *Config) ToolTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Agent.ToolTimeout)
	return d
}

func (c *Config) NotifyTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notify.Timeout)
	return d
}

// LogPath is where the chat UI writes its log
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.path), "agent.log")
}

// Path is the config file this Config was loaded from
func (c *Config) Path() string {
	return c.path
}

// ProfileNames lists the profile names in sorted order
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getConfigPath() (string, error) {
	var baseDir string

	// Use RORIPERSONA_HOME if set, otherwise use user's home directory
	if home := os.Getenv(envPrefix + "_HOME"); home != "" {
		baseDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = homeDir
	}

	return filepath.Join(baseDir, ".roripersona", "config.json"), nil
}

func createDefaultConfig(configPath string) error {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {
				Model: DefaultModel,
			},
		},
		ActiveProfile: "default",
		Agent: AgentConfig{
			SummaryPath:   filepath.Join(filepath.Dir(configPath), "summary.txt"),
			BioPath:       filepath.Join(filepath.Dir(configPath), "bio.txt"),
			MaxToolRounds: 5,
			MaxAttempts:   3,
			CallTimeout:   "60s",
			ToolTimeout:   "30s",
		},
		Notify: NotifyConfig{
			Provider: "log",
			Timeout:  "10s",
			Pushover: PushoverConfig{URL: defaultPushoverURL},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}

	return saveConfig(config, configPath)
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Save writes the profiles and the active profile back to the file it was
// loaded from. Other sections keep their file values, so RORIPERSONA_*
// overrides are never persisted.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	out := c
	if c.fileOnly != nil {
		merged := *c.fileOnly
		merged.Profiles = c.Profiles
		merged.ActiveProfile = c.ActiveProfile
		out = &merged
	}
	return saveConfig(out, configPath)
}

// UseProfile makes name the active profile
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

// RemoveProfile deletes a profile. The last profile is replaced by an empty
// default, and removing the active profile activates the first remaining one.
func (c *Config) RemoveProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q does not exist", name)
	}
	delete(c.Profiles, name)

	if len(c.Profiles) == 0 {
		c.Profiles["default"] = Profile{Model: DefaultModel}
	}
	if c.ActiveProfile == name {
		c.ActiveProfile = c.ProfileNames()[0]
	}
	return c.setCurrentProfile()
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to the first profile in name order
		names := c.ProfileNames()
		c.ActiveProfile = names[0]
		profile = c.Profiles[names[0]]
	}

	c.currentProfile = &profile
	return nil
}
