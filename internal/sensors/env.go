package sensors

import (
	"github.com/relabs-tech/baro_computer/internal/env"
)

// ReadPrimaryEnv reads the primary barometer (temp + pressure + altitude).
// Delegates to the barometer manager.
func ReadPrimaryEnv() (env.Sample, error) {
	return GetBaroManager().ReadPrimary()
}

// ReadSecondaryEnv reads the secondary barometer (temp + pressure + altitude).
// Delegates to the barometer manager.
func ReadSecondaryEnv() (env.Sample, error) {
	return GetBaroManager().ReadSecondary()
}
