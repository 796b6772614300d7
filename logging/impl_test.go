package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugw("debug", "k", 1)
	logger.Infof("info %d", 2)
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	logger.SetLevel(WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 3)

	entries := logs.TakeAll()
	test.That(t, entries[0].Message, test.ShouldEqual, "debug")
	test.That(t, entries[0].ContextMap()["k"], test.ShouldEqual, int64(1))
	test.That(t, entries[1].Message, test.ShouldEqual, "info 2")
	test.That(t, entries[2].Level, test.ShouldEqual, zapcore.WarnLevel)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("segmenter").Sublogger("labels")
	sub.Info("hello")

	entries := logs.TakeAll()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "segmenter.labels")

	// subloggers keep their own level
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevelJSON(t *testing.T) {
	data, err := WARN.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"warn"`)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"error"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	test.That(t, level.UnmarshalJSON([]byte(`7`)), test.ShouldNotBeNil)
}
