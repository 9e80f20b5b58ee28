package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBundle(t *testing.T, bundle promptsBundle) string {
	t.Helper()
	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func validBundle() promptsBundle {
	return promptsBundle{
		Prompts: Prompts{Scenario: "scenario prompt", UnifiedScripts: "scripts prompt"},
		Model:   ModelConfig{Name: "claude-x", MaxTokens: 4096, ScenarioTemperature: 0.7, ScriptTemperature: 0.5},
	}
}

func TestLoad_Valid(t *testing.T) {
	path := writeBundle(t, validBundle())
	t.Setenv("ANTHROPIC_KEY", "anthropic-key")
	t.Setenv("MESHY_KEY_1", "mesh-1")
	t.Setenv("EROOM_PRIVATE_KEY", "bearer-token")

	cfg, err := Load(path, 9090, discardLogger())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.AnthropicKey != "anthropic-key" {
		t.Errorf("AnthropicKey = %q", cfg.AnthropicKey)
	}
	if len(cfg.MeshyKeys) != 1 || cfg.MeshyKeys[0] != "mesh-1" {
		t.Errorf("MeshyKeys = %v", cfg.MeshyKeys)
	}
	if cfg.BearerToken != "bearer-token" {
		t.Errorf("BearerToken = %q", cfg.BearerToken)
	}
	if cfg.Prompts.Scenario != "scenario prompt" {
		t.Errorf("Prompts.Scenario = %q", cfg.Prompts.Scenario)
	}
	if cfg.Model.Name != "claude-x" {
		t.Errorf("Model.Name = %q", cfg.Model.Name)
	}
}

func TestLoad_PortFallsBackToEnv(t *testing.T) {
	path := writeBundle(t, validBundle())
	t.Setenv("PORT", "7070")

	cfg, err := Load(path, 0, discardLogger())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
}

func TestLoad_PortDefaultsTo8080(t *testing.T) {
	path := writeBundle(t, validBundle())

	cfg, err := Load(path, 0, discardLogger())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}

func TestLoad_GeneratesBearerTokenWhenAbsent(t *testing.T) {
	path := writeBundle(t, validBundle())

	cfg, err := Load(path, 0, discardLogger())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BearerToken == "" {
		t.Error("BearerToken is empty, want a generated fallback")
	}
}

func TestLoad_MissingPrompts(t *testing.T) {
	bundle := validBundle()
	bundle.Prompts.Scenario = ""
	path := writeBundle(t, bundle)

	if _, err := Load(path, 0, discardLogger()); err == nil {
		t.Error("Load() error = nil, want error for missing prompts.scenario")
	}
}

func TestLoad_MissingModel(t *testing.T) {
	bundle := validBundle()
	bundle.Model.Name = ""
	path := writeBundle(t, bundle)

	if _, err := Load(path, 0, discardLogger()); err == nil {
		t.Error("Load() error = nil, want error for missing model.name")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), 0, discardLogger()); err == nil {
		t.Error("Load() error = nil, want error for missing bundle file")
	}
}

func TestMeshyKeys_SkipsUnset(t *testing.T) {
	t.Setenv("MESHY_KEY_1", "a")
	t.Setenv("MESHY_KEY_2", "")
	t.Setenv("MESHY_KEY_3", "c")

	keys := meshyKeys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("meshyKeys() = %v, want [a c]", keys)
	}
}

func TestBlockedIPs(t *testing.T) {
	t.Setenv("EROOM_BLOCKED_IPS", "203.0.113.1, 10.0.0.0/8 ,,198.51.100.2")

	ips := blockedIPs()
	want := []string{"203.0.113.1", "10.0.0.0/8", "198.51.100.2"}
	if len(ips) != len(want) {
		t.Fatalf("blockedIPs() = %v, want %v", ips, want)
	}
	for i := range want {
		if ips[i] != want[i] {
			t.Errorf("blockedIPs()[%d] = %q, want %q", i, ips[i], want[i])
		}
	}
}

func TestBlockedIPs_Unset(t *testing.T) {
	if ips := blockedIPs(); ips != nil {
		t.Errorf("blockedIPs() = %v, want nil", ips)
	}
}

func TestParsePort(t *testing.T) {
	cases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 0},
		{args: []string{"9000"}, want: 9000},
		{args: []string{"not-a-number"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePort(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePort(%v) error = nil, want error", tc.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePort(%v) error = %v", tc.args, err)
		}
		if got != tc.want {
			t.Errorf("ParsePort(%v) = %d, want %d", tc.args, got, tc.want)
		}
	}
}
