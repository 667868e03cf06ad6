//go:build !darwin

package platform

// SetActivationPolicy does nothing outside macOS.
func SetActivationPolicy() {}

// IsAppActive reports true outside macOS, where the alert window cannot be
// raised over other applications.
func IsAppActive() bool { return true }

// ActivateApp does nothing outside macOS.
func ActivateApp() {}
