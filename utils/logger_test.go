package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetVerbose_And_IsVerbose(t *testing.T) {
	// save original state and restore after test
	original := IsVerbose()
	defer SetVerbose(original)

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected IsVerbose() = true after SetVerbose(true)")
	}
	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected IsVerbose() = false after SetVerbose(false)")
	}
	assert.Equal(t, logrus.InfoLevel, Logger().GetLevel())
}

func TestVerbose_SilentWhenDisabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	defer SetOutput(os.Stderr)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Verbose("test message %s %d", "arg", 42)
	assert.Empty(t, buf.String())
}

func TestVerbose_WritesWhenEnabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)
	defer SetOutput(os.Stderr)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Verbose("test message %s %d", "arg", 42)
	assert.Contains(t, buf.String(), "test message arg 42")
}

func TestInfo_DoesNotPanic(t *testing.T) {
	// should not panic
	Info("test info %s", "message")
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	original := Logger().GetLevel()
	defer Logger().SetLevel(original)

	SetLevel("warning")
	assert.Equal(t, logrus.WarnLevel, Logger().GetLevel())

	SetLevel("nonsense")
	assert.Equal(t, logrus.WarnLevel, Logger().GetLevel())
}

func TestSetLogFile_WritesFile(t *testing.T) {
	defer SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "castanaut.log")
	SetLogFile(LogFileOptions{Path: path, MaxSizeMB: 1})

	Info("written to file")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
