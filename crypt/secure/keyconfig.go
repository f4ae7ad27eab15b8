package secure

import (
	"os"
	"strings"
)

// DefaultSecretKeyEnvVar is the environment variable consulted when a caller
// does not specify a key source explicitly
const DefaultSecretKeyEnvVar = "SESSIONTOKEN_SECRET_KEY"

// KeyConfig designates a secret key source: a plaintext key, an environment
// variable, or a secrets file, tried in that order
// if different field names are required, just implement the Fetch/IsEmpty pair
type KeyConfig struct {
	Key       string `json:"key"`
	KeyEnvVar string `json:"keyEnvVar"`
	KeyFile   string `json:"keyFile"`
}

// DefaultKeyConfig returns a KeyConfig reading from DefaultSecretKeyEnvVar
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		KeyEnvVar: DefaultSecretKeyEnvVar,
	}
}

// IsEmpty returns true if no key source is set
func (c KeyConfig) IsEmpty() bool {
	return strings.TrimSpace(c.Key) == "" &&
		strings.TrimSpace(c.KeyEnvVar) == "" &&
		strings.TrimSpace(c.KeyFile) == ""
}

// Fetch retrieves the secret key from the configured source
// a configured source with no value yields an empty string, not an error
func (c KeyConfig) Fetch() (string, error) {
	if plainText := strings.TrimSpace(c.Key); plainText != "" {
		return plainText, nil
	}

	if envVar := strings.TrimSpace(c.KeyEnvVar); envVar != "" {
		if value := GetEnvVar(envVar); value != "" {
			return value, nil
		}
	}

	if secretsFile := strings.TrimSpace(c.KeyFile); secretsFile != "" {
		data, err := os.ReadFile(secretsFile)
		if err != nil {
			return "", err
		}
		return strings.Trim(string(data), " \t\n"), nil
	}

	return "", nil
}

// HaveSecretKey reports whether a secret key is configured in the default
// environment variable; used by the random source selection warnings
func HaveSecretKey() bool {
	return GetEnvVar(DefaultSecretKeyEnvVar) != ""
}
