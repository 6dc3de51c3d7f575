package log_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/log"
)

func TestNewRootLogger(t *testing.T) {
	for _, format := range []string{"json", "console", "auto", "logfmt"} {
		var buf bytes.Buffer
		logger, err := log.NewRootLogger(format, "info", &buf)
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("envelope verified", zap.Uint32("guardian_set_index", 3))
		require.NoError(t, logger.Sync())

		out := buf.String()
		require.NotContains(t, out, "hidden")
		require.Contains(t, out, "envelope verified")
		require.Contains(t, out, "guardian_set_index")
	}

	_, err := log.NewRootLogger("yaml", "info", &bytes.Buffer{})
	require.Error(t, err)
	_, err = log.NewRootLogger("json", "verbose", &bytes.Buffer{})
	require.Error(t, err)
}

func TestNewRootLoggerWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "attestd.log")
	logger, err := log.NewRootLoggerWithFile(logFile, "debug")
	require.NoError(t, err)
	logger.Info("hello")
	require.FileExists(t, logFile)
}

func TestNewFileLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "attestd.log")
	logger, err := log.NewFileLogger(logFile, "logfmt", "info")
	require.NoError(t, err)
	logger.Info("hello", zap.Uint32("guardian_set_index", 4))
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(content), "guardian_set_index=4")
}
