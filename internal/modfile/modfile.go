// Package modfile finds and loads module files for the commands.
package modfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/ModSequencer/parser/protracker"
	"github.com/sqweek/dialog"
)

// Ext is the file extension modules are expected to have.
const Ext = ".mod"

// ChoosePath resolves the module named by the first argument. Without
// arguments it asks for one with a file dialog, in which case the error may
// be dialog.ErrCancelled.
func ChoosePath(cwd string, args []string) (string, error) {
	if len(args) > 0 {
		return resolve(args[0], "passed argument is not a valid path")
	}

	path, err := dialog.
		File().
		Title("Open ProTracker module").
		Filter("ProTracker modules (*.mod)", "mod").
		SetStartDir(cwd).
		Load()
	if err != nil {
		return "", err
	}
	// filepath.Abs turns "" into the working directory, so check first.
	if path == "" {
		return "", dialog.ErrCancelled
	}
	return resolve(path, "dialog selection invalid")
}

// resolve makes path absolute and validates it. what describes where the
// path came from.
func resolve(path, what string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	if err := ValidatePath(abs); err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return abs, nil
}

// ValidatePath checks that p names an existing .mod file.
func ValidatePath(p string) error {
	if strings.ToLower(filepath.Ext(p)) != Ext {
		return fmt.Errorf("file must have %s extension", Ext)
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}

// Load reads and decodes the module at path. The whole file is kept in
// memory for as long as the Module is in use.
func Load(path string) (*protracker.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	mod, err := protracker.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return mod, nil
}
