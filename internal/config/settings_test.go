package config

import (
	"os"
	"path/filepath"
	"testing"
)

func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VORTEX_CONFIG_DIR", dir)
	return dir
}

func TestLoadSettingsDefaultsWhenMissing(t *testing.T) {
	dir := useConfigDir(t)

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.HTTP.TimeoutSeconds != HTTPTimeoutSecondsDefault {
		t.Fatalf("timeout = %d", settings.HTTP.TimeoutSeconds)
	}
	if settings.History.MaxEntries != HistoryMaxEntriesDefault {
		t.Fatalf("history max = %d", settings.History.MaxEntries)
	}
	if !settings.HTTP.FollowRedirects {
		t.Fatalf("follow redirects should default to true")
	}
	if handle.Format != SettingsFormatTOML || handle.Path != filepath.Join(dir, "settings.toml") {
		t.Fatalf("handle = %#v", handle)
	}
}

func TestLoadSettingsTOMLWinsOverJSON(t *testing.T) {
	dir := useConfigDir(t)

	tomlDoc := "default_workspace = \"/from/toml\"\n\n[http]\ntimeout_seconds = 10\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(tomlDoc), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	jsonDoc := `{"default_workspace": "/from/json", "editor": "", "http": {"timeout_seconds": 1, "follow_redirects": false}, "history": {"max_entries": 1}, "telemetry": {"endpoint": "", "insecure": false}}`
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(jsonDoc), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.DefaultWorkspace != "/from/toml" {
		t.Fatalf("default workspace = %q", settings.DefaultWorkspace)
	}
	if settings.HTTP.TimeoutSeconds != 10 {
		t.Fatalf("timeout = %d", settings.HTTP.TimeoutSeconds)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("handle format = %q", handle.Format)
	}
}

func TestLoadSettingsYAMLFallback(t *testing.T) {
	dir := useConfigDir(t)

	yamlDoc := "editor: vim\nhttp:\n  timeout_seconds: 15\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Editor != "vim" || settings.HTTP.TimeoutSeconds != 15 {
		t.Fatalf("settings = %#v", settings)
	}
	if handle.Format != SettingsFormatYAML {
		t.Fatalf("handle format = %q", handle.Format)
	}
	// sparse file still gets defaults backfilled
	if settings.History.MaxEntries != HistoryMaxEntriesDefault {
		t.Fatalf("history max = %d", settings.History.MaxEntries)
	}
}

func TestLoadSettingsParseErrorFails(t *testing.T) {
	dir := useConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	dir := useConfigDir(t)

	settings := DefaultSettings()
	settings.DefaultWorkspace = "/work/vortex"
	settings.Telemetry.Endpoint = "collector:4317"

	handle := SettingsHandle{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML}
	if err := SaveSettings(settings, handle); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _, err := LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DefaultWorkspace != "/work/vortex" || loaded.Telemetry.Endpoint != "collector:4317" {
		t.Fatalf("loaded = %#v", loaded)
	}
}

func TestSaveSettingsDefaultsHandle(t *testing.T) {
	dir := useConfigDir(t)

	if err := SaveSettings(DefaultSettings(), SettingsHandle{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings.toml")); err != nil {
		t.Fatalf("settings.toml should exist: %v", err)
	}
}
