// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package editorconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Default locations consulted by Discover.
const (
	// DefaultConfigPath is the YAML configuration file.
	DefaultConfigPath = "/etc/run0edit/config.yaml"
	// DefaultLegacyPath is the single-line editor path file kept for
	// compatibility with earlier releases.
	DefaultLegacyPath = "/etc/run0edit/editor.conf"
)

// defaultFallbacks are tried, in order, when no configuration names a
// usable editor.
var defaultFallbacks = []string{"nano", "vi"}

// defaultSearchDirs is the default system path used to locate fallback
// editors. The user's PATH is deliberately not consulted.
var defaultSearchDirs = []string{"/usr/local/bin", "/usr/bin", "/bin"}

// ErrNoEditor means no configured or fallback editor could be found.
var ErrNoEditor = errors.New("no editor found")

// Config is the YAML configuration file schema.
type Config struct {
	// Editor is the absolute path of the preferred editor.
	Editor string `yaml:"editor"`

	// Fallbacks override the built-in fallback editor names.
	Fallbacks []string `yaml:"fallbacks,omitempty"`
}

// Discovery locates the editor executable. The zero value uses the
// standard system locations; tests point the fields elsewhere.
type Discovery struct {
	// ConfigPath is the YAML configuration file location.
	ConfigPath string

	// LegacyPath is the single-line editor.conf location.
	LegacyPath string

	// Fallbacks are editor names tried when configuration yields
	// nothing usable.
	Fallbacks []string

	// SearchDirs are the directories searched for fallback editors.
	SearchDirs []string
}

// Editor returns the absolute path of the editor to use, or ErrNoEditor
// when neither configuration nor fallbacks produce a valid executable.
// A configured path that is not a valid executable is skipped, not
// fatal: a stale config entry should not make the tool unusable when
// nano is installed.
func (d *Discovery) Editor() (string, error) {
	if editor := d.fromConfig(); editor != "" {
		return editor, nil
	}
	if editor := d.fromLegacyConf(); editor != "" {
		return editor, nil
	}

	fallbacks := d.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = defaultFallbacks
	}
	for _, name := range fallbacks {
		if editor := d.findCommand(name); editor != "" {
			return editor, nil
		}
	}
	return "", ErrNoEditor
}

// Discover locates the editor using the standard system locations.
func Discover() (string, error) {
	d := Discovery{}
	return d.Editor()
}

// IsValidExecutable reports whether path is an absolute path to an
// executable regular file readable by the current user.
func IsValidExecutable(path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.R_OK|unix.X_OK) == nil
}

func (d *Discovery) fromConfig() string {
	path := d.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return ""
	}
	if len(config.Fallbacks) > 0 && len(d.Fallbacks) == 0 {
		d.Fallbacks = config.Fallbacks
	}
	if IsValidExecutable(config.Editor) {
		return config.Editor
	}
	return ""
}

func (d *Discovery) fromLegacyConf() string {
	path := d.LegacyPath
	if path == "" {
		path = DefaultLegacyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	editor := strings.TrimSpace(string(data))
	if IsValidExecutable(editor) {
		return editor
	}
	return ""
}

// findCommand searches the configured directories for an executable
// with the given name.
func (d *Discovery) findCommand(name string) string {
	dirs := d.SearchDirs
	if len(dirs) == 0 {
		dirs = defaultSearchDirs
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if IsValidExecutable(candidate) {
			return candidate
		}
	}
	return ""
}

// ResolveExplicit validates and canonicalizes an editor supplied on
// the command line. The path must be absolute and executable; it is
// symlink-resolved so the sandbox policy and the editor argv agree on
// one canonical location.
func ResolveExplicit(path string) (string, error) {
	if !IsValidExecutable(path) {
		return "", fmt.Errorf("editor %s is not an absolute path to an executable file", path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("resolving editor %s: %w", path, err)
	}
	return resolved, nil
}
