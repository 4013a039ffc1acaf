package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// GetInstallDir returns the directory containing the real launch binary. Symlinks are resolved so
// that a link named after a launcher still finds the table next to the binary.
func GetInstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", eris.Wrap(err, "Failed to determine executable path")
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", exe)
	}

	return filepath.Dir(resolved), nil
}

// SearchDirs returns the directories a launcher table is searched in: the installation directory
// first, then the working directory.
func SearchDirs() []string {
	dirs := []string{}
	if installDir, err := GetInstallDir(); err == nil {
		dirs = append(dirs, installDir)
	}

	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	return dirs
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}
