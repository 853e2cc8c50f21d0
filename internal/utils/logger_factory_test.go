package utils_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/gitsweep/internal/utils"
)

const testLogMessageConstant = "logger_factory_test_message"

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         string
		expectStructuredLog bool
		expectDebugOutput   bool
	}{
		{name: "debug_structured", requestedLogLevel: utils.LogLevelDebug, requestedLogFormat: utils.LogFormatStructured, expectStructuredLog: true, expectDebugOutput: true},
		{name: "info_structured", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormatStructured, expectStructuredLog: true},
		{name: "info_console", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormatConsole},
		{name: "aliases_are_case_insensitive", requestedLogLevel: "WARNING", requestedLogFormat: " JSON ", expectStructuredLog: true},
		{name: "unsupported_level", requestedLogLevel: "verbose", requestedLogFormat: utils.LogFormatStructured, expectError: "unsupported log level: verbose"},
		{name: "unsupported_format", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: "xml", expectError: "unsupported log format: xml"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			outputBuffer := &bytes.Buffer{}
			loggerFactory := utils.NewLoggerFactoryWithSink(zapcore.AddSync(outputBuffer))

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			if len(testCase.expectError) > 0 {
				require.EqualError(subTest, creationError, testCase.expectError)
				require.Nil(subTest, logger)
				return
			}
			require.NoError(subTest, creationError)

			logger.Debug(testLogMessageConstant + "_debug")
			logger.Warn(testLogMessageConstant)
			require.NoError(subTest, logger.Sync())

			lines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
			require.Equal(subTest, testCase.expectDebugOutput, strings.Contains(outputBuffer.String(), testLogMessageConstant+"_debug"))

			lastLine := lines[len(lines)-1]
			require.Contains(subTest, lastLine, testLogMessageConstant)
			require.Contains(subTest, lastLine, "gitsweep")
			require.Equal(subTest, testCase.expectStructuredLog, json.Valid([]byte(lastLine)))
		})
	}
}
