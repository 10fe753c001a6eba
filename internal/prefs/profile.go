package prefs

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jask/aura/internal/health"
)

const profileFile = "profile.toml"

// Profile is per-machine CLI state that does not belong in the database.
type Profile struct {
	ActiveSubject      string            `toml:"active_subject"`
	ActiveEmail        string            `toml:"active_email"`
	ChronotypeOverride health.Chronotype `toml:"chronotype_override,omitempty"`
	ForecastDays       int               `toml:"forecast_days,omitempty"`
}

// Dir overrides the profile directory; empty means the user config dir.
var Dir string

func profilePath() (string, error) {
	dir := Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "aura")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, profileFile), nil
}

func SaveProfile(p Profile) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadProfile returns the zero Profile when none was saved yet.
func LoadProfile() (Profile, error) {
	path, err := profilePath()
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return Profile{}, nil
		}
		return Profile{}, err
	}
	if p.ChronotypeOverride != "" {
		p.ChronotypeOverride = health.ParseChronotype(string(p.ChronotypeOverride))
	}
	return p, nil
}
