// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the user config directory.
// os.UserHomeDir() doesn't reliably respect HOME on all platforms.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom user config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
