// Package config defines the on-disk configuration of a facecube session.
package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
	"go.viam.com/facecube/rimage/transform"
)

// Defaults applied by Validate to unset fields.
const (
	DefaultMarginCM      = 10.0
	DefaultOutput        = "test.ply"
	DefaultFrameInterval = 33 * time.Millisecond

	// MaxMarginCM is the largest distance margin the session accepts.
	MaxMarginCM = 2047.0
)

// Config describes a facecube session.
type Config struct {
	ConfigFilePath string `json:"-"`

	MarginCM       float64 `json:"margin_cm"`
	HoleFillWindow int     `json:"hole_fill_window"`
	Output         string  `json:"output"`
	// BackSurface adds a copy of the front points to exports when the margin is non-zero.
	// Defaults to true.
	BackSurface   *bool  `json:"back_surface,omitempty"`
	FrameInterval string `json:"frame_interval,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`

	DepthModel *rimage.DepthModel           `json:"depth_model,omitempty"`
	Projection *transform.KinectProjection `json:"projection,omitempty"`
	Source     SourceConfig                 `json:"source"`

	frameInterval time.Duration
	logLevel      logging.Level
}

// SourceConfig describes where depth frames come from. The Kinect delivers 640x480 frames.
type SourceConfig struct {
	Files  []string `json:"files"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// Default returns a validated config with every default applied.
func Default() *Config {
	cfg := &Config{MarginCM: DefaultMarginCM}
	if err := cfg.Validate(""); err != nil {
		panic(err)
	}
	return cfg
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (cfg *Config) Validate(path string) error {
	if cfg.MarginCM < 0 || cfg.MarginCM > MaxMarginCM {
		return utils.NewConfigValidationError(path,
			errors.Errorf("margin_cm must be within [0, %v], got %v", MaxMarginCM, cfg.MarginCM))
	}
	if cfg.HoleFillWindow < 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("hole_fill_window cannot be negative, got %d", cfg.HoleFillWindow))
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	switch strings.ToLower(filepath.Ext(cfg.Output)) {
	case ".ply", ".pcd", ".las":
	default:
		return utils.NewConfigValidationError(path,
			errors.Errorf("output %q must end in .ply, .pcd or .las", cfg.Output))
	}

	if cfg.BackSurface == nil {
		back := true
		cfg.BackSurface = &back
	}

	cfg.frameInterval = DefaultFrameInterval
	if cfg.FrameInterval != "" {
		interval, err := time.ParseDuration(cfg.FrameInterval)
		if err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "invalid frame_interval"))
		}
		if interval < 0 {
			return utils.NewConfigValidationError(path, errors.New("frame_interval cannot be negative"))
		}
		cfg.frameInterval = interval
	}

	cfg.logLevel = logging.INFO
	if cfg.LogLevel != "" {
		level, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return utils.NewConfigValidationError(path, err)
		}
		cfg.logLevel = level
	}

	if cfg.DepthModel == nil {
		model := rimage.NewKinectDepthModel()
		cfg.DepthModel = &model
	}
	if err := cfg.DepthModel.Validate(); err != nil {
		return utils.NewConfigValidationError(path+".depth_model", err)
	}

	if cfg.Projection == nil {
		projection := transform.NewKinectProjection()
		cfg.Projection = &projection
	}
	if cfg.Projection.ScaleFactor <= 0 {
		return utils.NewConfigValidationError(path+".projection",
			errors.Errorf("scale_factor must be positive, got %v", cfg.Projection.ScaleFactor))
	}

	return cfg.Source.Validate(path + ".source")
}

// Validate ensures the source is usable. A zero width or height accepts any frame size on that
// axis.
func (sc *SourceConfig) Validate(path string) error {
	if sc.Width < 0 || sc.Height < 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("resolution cannot be negative, got %dx%d", sc.Width, sc.Height))
	}
	for i, f := range sc.Files {
		if f == "" {
			return utils.NewConfigValidationFieldRequiredError(path, "files."+strconv.Itoa(i))
		}
	}
	return nil
}

// FrameIntervalDuration returns the parsed frame interval. Only valid after Validate.
func (cfg *Config) FrameIntervalDuration() time.Duration {
	return cfg.frameInterval
}

// Level returns the parsed log level. Only valid after Validate.
func (cfg *Config) Level() logging.Level {
	return cfg.logLevel
}

// WithBackSurface reports whether exports get back surface points.
func (cfg *Config) WithBackSurface() bool {
	return cfg.BackSurface == nil || *cfg.BackSurface
}
