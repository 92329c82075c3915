package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	profilesDirName  = ".usercontrol"
	profilesFileName = "config.yaml"
)

// profilesFile is the on-disk shape of ~/.usercontrol/config.yaml:
//
//	default: local
//	profiles:
//	  local:
//	    db: ./usercontrol.sqlite
//	  prod:
//	    db: /srv/usercontrol/control.sqlite
//	    output: json
type profilesFile struct {
	Default  string             `yaml:"default,omitempty"`
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile holds the CLI defaults for one control store.
type Profile struct {
	DB     string `yaml:"db,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// profile picks the profile called name, or the default one when name is
// empty. Asking for an unknown name is an error; an unset or dangling
// default just yields no overrides.
func (f *profilesFile) profile(name string) (Profile, error) {
	if name == "" {
		return f.Profiles[f.Default], nil
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found in %s", name, profilesDisplayPath())
	}
	return p, nil
}

func profilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, profilesDirName, profilesFileName), nil
}

func profilesDisplayPath() string {
	return filepath.Join("~", profilesDirName, profilesFileName)
}

// readProfiles loads the profiles file. Having no file is the same as having
// no profiles; a file that exists but cannot be parsed is an error.
func readProfiles() (*profilesFile, error) {
	path, err := profilesPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // fixed location under $HOME
	if errors.Is(err, fs.ErrNotExist) {
		return &profilesFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// writeProfiles replaces the profiles file. The directory and file are
// readable by the owner only since profiles name database locations.
func writeProfiles(f *profilesFile) error {
	path, err := profilesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
