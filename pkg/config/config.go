package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DurationSolar is the sentinel for "derive the transition window from
// solar twilight" instead of a fixed ramp duration.
const DurationSolar = -1

// Config holds the configuration for the solartone daemon
type Config struct {
	// Color temperature configuration
	HighTemp        int     `yaml:"high_temp"`
	LowTemp         int     `yaml:"low_temp"`
	DurationMinutes int     `yaml:"duration_minutes"`
	Gamma           float64 `yaml:"gamma"`

	// Observer location
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	// Scheduling configuration
	TimerMode      string `yaml:"timer_mode"`
	PollMinSeconds int    `yaml:"poll_min_seconds"`
	PollMaxSeconds int    `yaml:"poll_max_seconds"`

	// Transport configuration
	Transport   string `yaml:"transport"`
	SimOutputs  int    `yaml:"sim_outputs"`
	SimRampSize int    `yaml:"sim_ramp_size"`

	// MQTT configuration (optional; empty broker disables the announcer)
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`
	MQTTPrefix   string `yaml:"mqtt_prefix"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	HealthPort  int    `yaml:"health_port"`
	LogLevel    string `yaml:"log_level"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		HighTemp:        6500,
		LowTemp:         4000,
		DurationMinutes: 60,
		Gamma:           1.0,
		Latitude:        0,
		Longitude:       0,
		TimerMode:       "absolute",
		PollMinSeconds:  1,
		PollMaxSeconds:  300,
		Transport:       "sim",
		SimOutputs:      1,
		SimRampSize:     1024,
		MQTTBroker:      "",
		MQTTPort:        1883,
		MQTTUser:        "",
		MQTTPassword:    "",
		MQTTClientID:    "",
		MQTTPrefix:      "solartone",
		ServiceName:     "solartone",
		HealthPort:      0,
		LogLevel:        "info",
	}
}

// LoadFromFile merges configuration from a YAML file, if path is non-empty
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with SOLARTONE_ prefix
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("SOLARTONE_HIGH_TEMP"); v != "" {
		if temp, err := strconv.Atoi(v); err == nil {
			c.HighTemp = temp
		}
	}
	if v := os.Getenv("SOLARTONE_LOW_TEMP"); v != "" {
		if temp, err := strconv.Atoi(v); err == nil {
			c.LowTemp = temp
		}
	}
	if v := os.Getenv("SOLARTONE_DURATION_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.DurationMinutes = minutes
		}
	}
	if v := os.Getenv("SOLARTONE_GAMMA"); v != "" {
		if gamma, err := strconv.ParseFloat(v, 64); err == nil {
			c.Gamma = gamma
		}
	}
	if v := os.Getenv("SOLARTONE_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("SOLARTONE_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("SOLARTONE_TIMER_MODE"); v != "" {
		c.TimerMode = v
	}
	if v := os.Getenv("SOLARTONE_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("SOLARTONE_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("SOLARTONE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("SOLARTONE_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("SOLARTONE_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("SOLARTONE_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("SOLARTONE_MQTT_PREFIX"); v != "" {
		c.MQTTPrefix = v
	}
	if v := os.Getenv("SOLARTONE_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("SOLARTONE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values.
// Returns true when -h/--help was requested.
func (c *Config) LoadFromFlags() bool {
	help := pflag.BoolP("help", "h", false, "show this help message")
	configFile := pflag.StringP("config", "c", "", "path to YAML configuration file")

	pflag.IntVarP(&c.HighTemp, "high-temp", "T", c.HighTemp, "daytime color temperature in Kelvin")
	pflag.IntVarP(&c.LowTemp, "low-temp", "t", c.LowTemp, "nighttime color temperature in Kelvin")
	pflag.Float64VarP(&c.Latitude, "latitude", "l", c.Latitude, "geographic latitude (e.g. 39.9)")
	pflag.Float64VarP(&c.Longitude, "longitude", "L", c.Longitude, "geographic longitude (e.g. 116.3)")
	pflag.IntVarP(&c.DurationMinutes, "duration", "d", c.DurationMinutes, "ramp duration in minutes (negative: derive from solar twilight)")
	pflag.Float64VarP(&c.Gamma, "gamma", "g", c.Gamma, "gamma exponent")

	pflag.StringVar(&c.TimerMode, "timer-mode", c.TimerMode, "wakeup arming strategy (absolute, poll)")
	pflag.IntVar(&c.PollMinSeconds, "poll-min", c.PollMinSeconds, "minimum poll wait in seconds (poll mode)")
	pflag.IntVar(&c.PollMaxSeconds, "poll-max", c.PollMaxSeconds, "maximum poll wait in seconds (poll mode)")

	pflag.StringVar(&c.Transport, "transport", c.Transport, "display transport (sim)")
	pflag.IntVar(&c.SimOutputs, "sim-outputs", c.SimOutputs, "number of simulated outputs")
	pflag.IntVar(&c.SimRampSize, "sim-ramp-size", c.SimRampSize, "ramp size of simulated outputs")

	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname (empty: disabled)")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	pflag.StringVar(&c.MQTTPrefix, "mqtt-prefix", c.MQTTPrefix, "MQTT topic prefix")

	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "health check HTTP port (0: disabled)")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")

	pflag.Parse()

	if *configFile != "" {
		fileCfg := NewConfig()
		if err := fileCfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			c.applyUnsetFrom(fileCfg)
		}
	}

	return *help
}

// applyUnsetFrom copies file-provided values for flags the user did not set
// explicitly on the command line. Flags win over the file, the file wins
// over environment and defaults.
func (c *Config) applyUnsetFrom(file *Config) {
	set := map[string]bool{}
	pflag.Visit(func(f *pflag.Flag) { set[f.Name] = true })

	if !set["high-temp"] {
		c.HighTemp = file.HighTemp
	}
	if !set["low-temp"] {
		c.LowTemp = file.LowTemp
	}
	if !set["latitude"] {
		c.Latitude = file.Latitude
	}
	if !set["longitude"] {
		c.Longitude = file.Longitude
	}
	if !set["duration"] {
		c.DurationMinutes = file.DurationMinutes
	}
	if !set["gamma"] {
		c.Gamma = file.Gamma
	}
	if !set["timer-mode"] {
		c.TimerMode = file.TimerMode
	}
	if !set["transport"] {
		c.Transport = file.Transport
	}
	if !set["mqtt-broker"] {
		c.MQTTBroker = file.MQTTBroker
	}
	if !set["mqtt-port"] {
		c.MQTTPort = file.MQTTPort
	}
	if !set["mqtt-prefix"] {
		c.MQTTPrefix = file.MQTTPrefix
	}
	if !set["health-port"] {
		c.HealthPort = file.HealthPort
	}
	if !set["log-level"] {
		c.LogLevel = file.LogLevel
	}
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.HighTemp == c.LowTemp {
		return fmt.Errorf("high (%d) and low (%d) temperature must not be identical", c.HighTemp, c.LowTemp)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive")
	}
	if c.TimerMode != "absolute" && c.TimerMode != "poll" {
		return fmt.Errorf("invalid timer mode: %s (must be absolute or poll)", c.TimerMode)
	}
	if c.PollMinSeconds < 1 || c.PollMaxSeconds < c.PollMinSeconds {
		return fmt.Errorf("poll bounds must satisfy 1 <= poll-min <= poll-max")
	}
	if c.Transport != "sim" {
		return fmt.Errorf("unknown transport: %s", c.Transport)
	}
	if c.SimOutputs < 0 {
		return fmt.Errorf("sim-outputs must not be negative")
	}
	if c.SimRampSize < 2 {
		return fmt.Errorf("sim-ramp-size must be at least 2")
	}
	if c.MQTTBroker != "" && (c.MQTTPort <= 0 || c.MQTTPort > 65535) {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health port must be between 0 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// SolarDuration reports whether the transition window should be derived
// from solar twilight rather than a fixed duration.
func (c *Config) SolarDuration() bool {
	return c.DurationMinutes < 0
}

// Duration returns the fixed ramp duration. Only meaningful when
// SolarDuration() is false.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// MQTTEnabled reports whether the optional MQTT announcer is configured
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// PollBounds returns the clamp interval for poll-mode waits
func (c *Config) PollBounds() (time.Duration, time.Duration) {
	return time.Duration(c.PollMinSeconds) * time.Second,
		time.Duration(c.PollMaxSeconds) * time.Second
}
