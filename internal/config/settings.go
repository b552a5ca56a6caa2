// Package config loads application settings from the user config directory.
// Settings are separate from workspace data: they describe this machine's
// preferences (editor, timeouts, telemetry endpoint), not any collection.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
	SettingsFormatYAML SettingsFormat = "yaml"
)

type Settings struct {
	DefaultWorkspace string            `json:"default_workspace" toml:"default_workspace" yaml:"default_workspace"`
	Editor           string            `json:"editor"            toml:"editor"            yaml:"editor"`
	HTTP             HTTPSettings      `json:"http"              toml:"http"              yaml:"http"`
	History          HistorySettings   `json:"history"           toml:"history"           yaml:"history"`
	Telemetry        TelemetrySettings `json:"telemetry"         toml:"telemetry"         yaml:"telemetry"`
}

type HTTPSettings struct {
	TimeoutSeconds  int  `json:"timeout_seconds"  toml:"timeout_seconds"  yaml:"timeout_seconds"`
	FollowRedirects bool `json:"follow_redirects" toml:"follow_redirects" yaml:"follow_redirects"`
}

type HistorySettings struct {
	MaxEntries int `json:"max_entries" toml:"max_entries" yaml:"max_entries"`
}

type TelemetrySettings struct {
	Endpoint string `json:"endpoint" toml:"endpoint" yaml:"endpoint"`
	Insecure bool   `json:"insecure" toml:"insecure" yaml:"insecure"`
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

const (
	HTTPTimeoutSecondsDefault = 30
	HistoryMaxEntriesDefault  = 200
)

func DefaultSettings() Settings {
	return Settings{
		HTTP: HTTPSettings{
			TimeoutSeconds:  HTTPTimeoutSecondsDefault,
			FollowRedirects: true,
		},
		History: HistorySettings{
			MaxEntries: HistoryMaxEntriesDefault,
		},
	}
}

// Dir returns the per-user settings directory, honoring VORTEX_CONFIG_DIR as
// an override for tests and portable installs.
func Dir() string {
	if override := os.Getenv("VORTEX_CONFIG_DIR"); override != "" {
		return override
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return ".vortex"
		}
		return filepath.Join(home, ".config", "vortex")
	}
	return filepath.Join(base, "vortex")
}

// LoadSettings tries TOML, then JSON, then YAML; the first file that exists
// wins. Missing files skip to the next format, parse errors fail immediately,
// and when nothing exists the defaults come back with a TOML handle so the
// first save lands on settings.toml.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
		{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return normalizeSettings(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatYAML:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

// normalizeSettings backfills zero values with defaults so a sparse settings
// file never yields a zero timeout or an unbounded history.
func normalizeSettings(in Settings) Settings {
	out := in
	if out.HTTP.TimeoutSeconds <= 0 {
		out.HTTP.TimeoutSeconds = HTTPTimeoutSecondsDefault
	}
	if out.History.MaxEntries <= 0 {
		out.History.MaxEntries = HistoryMaxEntriesDefault
	}
	return out
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = normalizeSettings(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		data, err = json.MarshalIndent(settings, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case SettingsFormatYAML:
		data, err = yaml.Marshal(settings)
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
