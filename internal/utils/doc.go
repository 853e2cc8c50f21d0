// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader and LoggerFactory abstractions that integrate
// Viper, environment variables, and zap logging for the gitsweep CLI, plus a
// small home-directory expansion helper for path flags.
package utils
