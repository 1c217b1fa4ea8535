package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the CLI logger writing to w. Verbose runs get the
// development encoder at debug level, quiet runs only errors.
func newLogger(w io.Writer, verbose, quiet bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	level := zapcore.WarnLevel
	var opts []zap.Option
	switch {
	case verbose:
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
		opts = append(opts, zap.Development())
	case quiet:
		level = zapcore.ErrorLevel
	}
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core, opts...)
}
