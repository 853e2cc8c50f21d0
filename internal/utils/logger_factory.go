package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelWarningAliasConstant         = "warning"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatJSONAliasConstant           = "json"
	logFormatConsoleStringConstant       = "console"
	loggerNameConstant                   = "gitsweep"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[string]zapcore.Level{
	logLevelDebugStringConstant:  zapcore.DebugLevel,
	logLevelInfoStringConstant:   zapcore.InfoLevel,
	logLevelWarnStringConstant:   zapcore.WarnLevel,
	logLevelWarningAliasConstant: zapcore.WarnLevel,
	logLevelErrorStringConstant:  zapcore.ErrorLevel,
}

var logFormatMapping = map[string]LogFormat{
	logFormatStructuredStringConstant: LogFormatStructured,
	logFormatJSONAliasConstant:        LogFormatStructured,
	logFormatConsoleStringConstant:    LogFormatConsole,
}

// LoggerFactory builds zap.Logger instances that write diagnostics to a
// single sink, stderr unless overridden, so report output on stdout stays clean.
type LoggerFactory struct {
	sink zapcore.WriteSyncer
}

// NewLoggerFactory constructs a factory writing to stderr.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithSink(zapcore.Lock(os.Stderr))
}

// NewLoggerFactoryWithSink constructs a factory writing to the supplied sink.
func NewLoggerFactoryWithSink(sink zapcore.WriteSyncer) *LoggerFactory {
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}
	return &LoggerFactory{sink: sink}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
// Level and format names are case-insensitive; "warning" and "json" are accepted
// as aliases. Console loggers use readable timestamps and omit stack traces.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[normalizeLoggingValue(string(requestedLogLevel))]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	logFormat, formatExists := logFormatMapping[normalizeLoggingValue(string(requestedLogFormat))]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	var encoder zapcore.Encoder
	options := []zap.Option{zap.ErrorOutput(factory.sink)}
	if logFormat == LogFormatConsole {
		encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfiguration.CallerKey = zapcore.OmitKey
		encoder = zapcore.NewConsoleEncoder(encoderConfiguration)
	} else {
		encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfiguration)
		options = append(options, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	core := zapcore.NewCore(encoder, factory.sink, zap.NewAtomicLevelAt(zapLogLevel))
	return zap.New(core, options...).Named(loggerNameConstant), nil
}

func normalizeLoggingValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
