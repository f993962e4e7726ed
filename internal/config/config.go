// Package config loads service settings from defaults, an optional YAML file
// and SILEXA_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/stabilizer"
)

// EnvFile names the environment variable holding the YAML config path.
const EnvFile = "SILEXA_CONFIG"

type Config struct {
	Dataset    Dataset    `yaml:"dataset"`
	Model      Model      `yaml:"model"`
	Stabilizer Stabilizer `yaml:"stabilizer"`
	Server     Server     `yaml:"server"`
	History    History    `yaml:"history"`
	Camera     Camera     `yaml:"camera"`
	Detector   Detector   `yaml:"detector"`
	Speech     Speech     `yaml:"speech"`
	Tray       Tray       `yaml:"tray"`
	Log        Log        `yaml:"log"`
}

type Dataset struct {
	Path string `yaml:"path"`
}

type Model struct {
	Path            string  `yaml:"path"`
	Kind            string  `yaml:"kind"`
	Trees           int     `yaml:"trees"`
	MaxDepth        int     `yaml:"maxDepth"`
	MinSamplesSplit int     `yaml:"minSamplesSplit"`
	MinSamplesLeaf  int     `yaml:"minSamplesLeaf"`
	Seed            uint64  `yaml:"seed"`
	TestFraction    float64 `yaml:"testFraction"`
	Workers         int     `yaml:"workers"`
}

type Stabilizer struct {
	Cooldown    time.Duration `yaml:"cooldown"`
	Policy      string        `yaml:"policy"`
	SessionIdle time.Duration `yaml:"sessionIdle"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"`
	Metrics   bool   `yaml:"metrics"`
}

type History struct {
	Path string `yaml:"path"`
}

type Camera struct {
	Enabled         bool          `yaml:"enabled"`
	Device          int           `yaml:"device"`
	FPS             int           `yaml:"fps"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	Mirror          bool          `yaml:"mirror"`
	MotionThreshold float64       `yaml:"motionThreshold"`
	MotionHold      time.Duration `yaml:"motionHold"`
}

type Detector struct {
	Script        string        `yaml:"script"`
	Python        string        `yaml:"python"`
	MaxHands      int           `yaml:"maxHands"`
	MinConfidence float64       `yaml:"minConfidence"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
}

type Speech struct {
	PluginDir string        `yaml:"pluginDir"`
	Plugin    string        `yaml:"plugin"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Tray struct {
	Enabled bool `yaml:"enabled"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in settings.
func Default() Config {
	p := classifier.DefaultParams()
	return Config{
		Dataset: Dataset{Path: "data/gestures.csv"},
		Model: Model{
			Path:            "models/gesture.slxm",
			Kind:            p.Kind,
			Trees:           p.Trees,
			MinSamplesSplit: p.MinSamplesSplit,
			MinSamplesLeaf:  p.MinSamplesLeaf,
			Seed:            p.Seed,
			TestFraction:    p.TestFraction,
		},
		Stabilizer: Stabilizer{
			Cooldown:    stabilizer.DefaultCooldown,
			Policy:      "both",
			SessionIdle: 10 * time.Minute,
		},
		Server:  Server{Addr: ":8080", Metrics: true},
		History: History{Path: "data/history.db"},
		Camera:  Camera{Device: 0, FPS: 15, Width: 640, Height: 480, Mirror: true, MotionThreshold: 0.5, MotionHold: 2 * time.Second},
		Detector: Detector{
			MaxHands:      1,
			MinConfidence: 0.5,
			IdleTimeout:   30 * time.Second,
		},
		Speech: Speech{PluginDir: "plugins", Timeout: 5 * time.Second},
		Log:    Log{Level: "info"},
	}
}

// Load builds the configuration. path may be empty, in which case SILEXA_CONFIG
// is consulted; a missing file is only an error when named explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flt := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SILEXA_DATASET_PATH", &c.Dataset.Path)
	str("SILEXA_MODEL_PATH", &c.Model.Path)
	str("SILEXA_MODEL_KIND", &c.Model.Kind)
	num("SILEXA_MODEL_TREES", &c.Model.Trees)
	num("SILEXA_MODEL_WORKERS", &c.Model.Workers)
	if v, ok := lookup("SILEXA_MODEL_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SILEXA_MODEL_SEED: %w", err))
		} else {
			c.Model.Seed = seed
		}
	}
	flt("SILEXA_MODEL_TEST_FRACTION", &c.Model.TestFraction)
	dur("SILEXA_COOLDOWN", &c.Stabilizer.Cooldown)
	str("SILEXA_POLICY", &c.Stabilizer.Policy)
	dur("SILEXA_SESSION_IDLE", &c.Stabilizer.SessionIdle)
	str("SILEXA_ADDR", &c.Server.Addr)
	str("SILEXA_STATIC_DIR", &c.Server.StaticDir)
	flag("SILEXA_METRICS", &c.Server.Metrics)
	str("SILEXA_HISTORY_PATH", &c.History.Path)
	flag("SILEXA_CAMERA_ENABLED", &c.Camera.Enabled)
	num("SILEXA_CAMERA_DEVICE", &c.Camera.Device)
	flt("SILEXA_MOTION_THRESHOLD", &c.Camera.MotionThreshold)
	str("SILEXA_DETECTOR_SCRIPT", &c.Detector.Script)
	str("SILEXA_DETECTOR_PYTHON", &c.Detector.Python)
	str("SILEXA_PLUGIN_DIR", &c.Speech.PluginDir)
	str("SILEXA_SPEECH_PLUGIN", &c.Speech.Plugin)
	flag("SILEXA_TRAY_ENABLED", &c.Tray.Enabled)
	str("SILEXA_LOG_LEVEL", &c.Log.Level)
	flag("SILEXA_LOG_PRETTY", &c.Log.Pretty)

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("1500ms") and bare seconds ("2", "0.5").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// Validate reports settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Dataset.Path) == "" {
		errs = append(errs, errors.New("dataset.path is required"))
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.Stabilizer.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("stabilizer.cooldown must be positive, got %s", c.Stabilizer.Cooldown))
	}
	if _, err := stabilizer.ParsePolicy(c.Stabilizer.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		errs = append(errs, fmt.Errorf("model.testFraction must be in (0,1), got %g", c.Model.TestFraction))
	}
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Camera.MotionHold < 0 {
		errs = append(errs, fmt.Errorf("camera.motionHold must not be negative, got %s", c.Camera.MotionHold))
	}
	if c.Speech.Timeout < 0 {
		errs = append(errs, fmt.Errorf("speech.timeout must not be negative, got %s", c.Speech.Timeout))
	}
	return errors.Join(errs...)
}

// Params converts the model section to training parameters.
func (c Config) Params() classifier.Params {
	return classifier.Params{
		Kind:            c.Model.Kind,
		Trees:           c.Model.Trees,
		MaxDepth:        c.Model.MaxDepth,
		MinSamplesSplit: c.Model.MinSamplesSplit,
		MinSamplesLeaf:  c.Model.MinSamplesLeaf,
		Seed:            c.Model.Seed,
		TestFraction:    c.Model.TestFraction,
		Workers:         c.Model.Workers,
	}
}

// Policy returns the parsed stabilizer policy. Call after Validate.
func (c Config) Policy() stabilizer.Policy {
	p, _ := stabilizer.ParsePolicy(c.Stabilizer.Policy)
	return p
}
