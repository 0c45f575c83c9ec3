// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// Values of runtime.GOOS that change fatpack's behavior.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// HomeEnvVar is the environment variable holding the user's home directory.
func HomeEnvVar() string {
	if runtime.GOOS == Windows {
		return "USERPROFILE"
	}
	return "HOME"
}
