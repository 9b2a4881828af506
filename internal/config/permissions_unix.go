//go:build unix

package config

import (
	"fmt"
	"os"
)

// checkFilePermissions returns a warning if the config file is readable by group or others.
func checkFilePermissions(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return fmt.Sprintf(
			"WARNING: Config file '%s' has insecure permissions (%04o)\n"+
				"         Other users may be able to read the database password or Slack webhook.\n"+
				"         Run: chmod 600 %s\n\n",
			path, mode, path,
		)
	}
	return ""
}
