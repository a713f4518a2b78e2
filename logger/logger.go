// Package logger holds the process-wide structured logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is safe to use before Initialize; it discards everything until then.
	Logger *zap.SugaredLogger
	// JSONOutput records whether Initialize installed the JSON encoder.
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize installs a stderr logger. Verbose enables debug output; jsonOutput selects
// machine-readable records instead of the console encoder.
func Initialize(verbose bool, jsonOutput bool) error {
	JSONOutput = jsonOutput
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		zapLogger, err := config.Build()
		if err != nil {
			return err
		}
		Logger = zapLogger.Sugar()
		return nil
	}
	Logger = zap.New(zapcore.NewCore(newConsoleEncoder(), zapcore.AddSync(os.Stderr), level)).Sugar()
	return nil
}

// Use replaces the global logger, typically with zaptest or an observer core in tests.
func Use(l *zap.Logger) {
	Logger = l.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

func newConsoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = ""
	config.CallerKey = ""
	config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(config)
}
