package cli

import (
	"bytes"
	_ "embed"
)

//go:embed default_config.yaml
var defaultConfigurationYAML []byte

// EmbeddedDefaultConfiguration returns a copy of the bundled default_config.yaml and its viper type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfigurationYAML), configurationTypeConstant
}
