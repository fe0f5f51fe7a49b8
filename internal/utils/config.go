package utils

import (
	"time"

	"github.com/waypost/waypost/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level string `yaml:"level"` // zerolog level: debug, info, warn, error
	} `yaml:"log"`

	Store struct {
		Path string `yaml:"path"` // Path to the SQLite database file
	} `yaml:"store"`

	Access struct {
		ConsentFile string `yaml:"consent_file"` // Path to the persisted consent record
	} `yaml:"access"`

	GPS struct {
		DevicePort string `yaml:"device_port"` // Serial port the GPS sensor is mounted on; empty disables the sensor
		BaudRate   int    `yaml:"baud_rate"`   // Baud rate for the serial communication
	} `yaml:"gps"`

	Network struct {
		MapsAPIKey   string        `yaml:"maps_api_key"`  // Google Maps Geolocation API key; empty disables the source
		PollInterval time.Duration `yaml:"poll_interval"` // Interval between geolocation polls (in seconds)
		ModemIndex   int           `yaml:"modem_index"`   // mmcli modem index for cell tower scans
	} `yaml:"network"`

	Arbiter struct {
		Deadline                  time.Duration `yaml:"deadline"`                     // Hard limit for one acquisition session (in seconds)
		GraceDelay                time.Duration `yaml:"grace_delay"`                  // Precise-only window before the approximate source joins (in seconds)
		PreciseGoodAccuracyM      float64       `yaml:"precise_good_accuracy_m"`      // Precise accuracy (meters) that resolves immediately
		ApproxAcceptableAccuracyM float64       `yaml:"approx_acceptable_accuracy_m"` // Approximate accuracy (meters) that resolves after grace
	} `yaml:"arbiter"`

	Match struct {
		ThresholdM float64 `yaml:"threshold_m"` // Distance (meters) under which a check counts as matched
	} `yaml:"match"`
}

// LoadConfig loads the YAML configuration from the specified file and fills in
// defaults for anything left unset, so a minimal file is runnable.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// Durations in the YAML file are plain second counts; they are scaled with
// time.Second where the owning component is constructed.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Path == "" {
		c.Store.Path = "waypost.db"
	}
	if c.Access.ConsentFile == "" {
		c.Access.ConsentFile = "consent.json"
	}
	if c.GPS.BaudRate == 0 {
		c.GPS.BaudRate = 9600
	}
	if c.Network.PollInterval == 0 {
		c.Network.PollInterval = 3
	}
	if c.Arbiter.Deadline == 0 {
		c.Arbiter.Deadline = 15
	}
	if c.Arbiter.GraceDelay == 0 {
		c.Arbiter.GraceDelay = 5
	}
	if c.Arbiter.PreciseGoodAccuracyM == 0 {
		c.Arbiter.PreciseGoodAccuracyM = 20
	}
	if c.Arbiter.ApproxAcceptableAccuracyM == 0 {
		c.Arbiter.ApproxAcceptableAccuracyM = 50
	}
	if c.Match.ThresholdM == 0 {
		c.Match.ThresholdM = 20
	}
}
