package onboarding

import (
	"os"

	"dashgrid/config"
)

// IsFirstRun reports whether settings.yaml has not been written yet.
func IsFirstRun() bool {
	path, err := config.GetSettingsFile()
	if err != nil {
		return true // If we can't get config dir, assume first run
	}
	_, err = os.Stat(path)
	return os.IsNotExist(err)
}
