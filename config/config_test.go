package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/facecube/logging"
	"go.viam.com/facecube/rimage"
	"go.viam.com/facecube/rimage/transform"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.MarginCM, test.ShouldEqual, DefaultMarginCM)
	test.That(t, cfg.HoleFillWindow, test.ShouldEqual, 0)
	test.That(t, cfg.Output, test.ShouldEqual, "test.ply")
	test.That(t, cfg.WithBackSurface(), test.ShouldBeTrue)
	test.That(t, cfg.FrameIntervalDuration(), test.ShouldEqual, DefaultFrameInterval)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, *cfg.DepthModel, test.ShouldResemble, rimage.NewKinectDepthModel())
	test.That(t, *cfg.Projection, test.ShouldResemble, transform.NewKinectProjection())
	test.That(t, cfg.Source.Width, test.ShouldEqual, 0)
	test.That(t, cfg.Source.Files, test.ShouldBeEmpty)
}

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("empty object keeps defaults", func(t *testing.T) {
		cfg, err := FromReader("", strings.NewReader(`{}`), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.MarginCM, test.ShouldEqual, DefaultMarginCM)
		test.That(t, cfg.Output, test.ShouldEqual, DefaultOutput)
	})

	t.Run("explicit values", func(t *testing.T) {
		cfg, err := FromReader("/tmp/cube/facecube.json", strings.NewReader(`{
			"margin_cm": 0,
			"hole_fill_window": 5,
			"output": "face.pcd",
			"back_surface": false,
			"frame_interval": "100ms",
			"log_level": "debug",
			"source": {"files": ["a.dat.gz", "/abs/b.dat"], "width": 4, "height": 3}
		}`), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.MarginCM, test.ShouldEqual, 0.0)
		test.That(t, cfg.HoleFillWindow, test.ShouldEqual, 5)
		test.That(t, cfg.Output, test.ShouldEqual, "face.pcd")
		test.That(t, cfg.WithBackSurface(), test.ShouldBeFalse)
		test.That(t, cfg.FrameIntervalDuration(), test.ShouldEqual, 100*time.Millisecond)
		test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
		test.That(t, cfg.Source.Files, test.ShouldResemble, []string{"/tmp/cube/a.dat.gz", "/abs/b.dat"})
		test.That(t, cfg.Source.Width, test.ShouldEqual, 4)
		test.That(t, cfg.Source.Height, test.ShouldEqual, 3)
		test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "/tmp/cube/facecube.json")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{"margin_cm": "far"`), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")
	})
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  Config
		msg  string
	}{
		{"negative margin", Config{MarginCM: -1}, "margin_cm"},
		{"margin too large", Config{MarginCM: 3000}, "margin_cm"},
		{"negative window", Config{HoleFillWindow: -2}, "hole_fill_window"},
		{"unknown output", Config{Output: "face.obj"}, "face.obj"},
		{"bad interval", Config{FrameInterval: "soon"}, "frame_interval"},
		{"negative interval", Config{FrameInterval: "-1s"}, "frame_interval"},
		{"bad level", Config{LogLevel: "loud"}, "loud"},
		{"bad model", Config{DepthModel: &rimage.DepthModel{K1: 0, K2: 3.33, RawRange: 2047}}, "depth_model"},
		{"bad projection", Config{Projection: &transform.KinectProjection{MinDistance: -100}}, "scale_factor"},
		{"negative resolution", Config{Source: SourceConfig{Width: -1}}, "resolution"},
		{"empty file", Config{Source: SourceConfig{Files: []string{"a", ""}}}, "files.1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate("facecube")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "facecube.json")
	test.That(t, os.WriteFile(fn, []byte(`{"output": "${FACECUBE_OUT}", "margin_cm": 25}`), 0o600), test.ShouldBeNil)
	t.Setenv("FACECUBE_OUT", "scan.las")

	cfg, err := Read(fn, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Output, test.ShouldEqual, "scan.las")
	test.That(t, cfg.MarginCM, test.ShouldEqual, 25.0)

	_, err = Read(filepath.Join(dir, "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
