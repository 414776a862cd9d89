package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const validConfig = `
[general]
enable_local_mode = true
enable_network_mode = false

[buffer]
capacity_option = "bounded"
buffer_capacity = 1000
batch_size = 50
batch_timeout_ms = 200

[buffer.durability]
type = "in-memory"

[shipper]
embedder_target_addr = "127.0.0.1:9090"
initial_retry_delay_ms = 10
max_retry_delay_ms = 1000
backoff_factor = 2.0
retry_jitter = 0.0

[watcher]
enabled = true
log_dir = "/var/log/app"
checkpoint_path = "/var/run/agent/checkpoint.json"

[parser]
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Buffer.CapacityOption != CapacityBounded {
		t.Errorf("CapacityOption = %q, want bounded", cfg.Buffer.CapacityOption)
	}
	if cfg.Buffer.Durability.Type != DurabilityInMemory {
		t.Errorf("Durability.Type = %q, want in-memory", cfg.Buffer.Durability.Type)
	}
	if cfg.Watcher.PollIntervalMs != 5000 {
		t.Errorf("PollIntervalMs default = %d, want 5000", cfg.Watcher.PollIntervalMs)
	}
	if cfg.Buffer.OverflowPolicy != OverflowBlock {
		t.Errorf("OverflowPolicy default = %q, want block_with_backpressure", cfg.Buffer.OverflowPolicy)
	}
}

func TestLoadRejectsInvalidEnum(t *testing.T) {
	body := validConfig + "\n"
	path := writeConfig(t, body)

	// Corrupt the capacity_option value after the fact to exercise validate().
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	corrupted := []byte(strings.Replace(string(raw), `capacity_option = "bounded"`, `capacity_option = "sideways"`, 1))
	if err := os.WriteFile(path, corrupted, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid capacity_option, got nil")
	}
}

func TestLoadRequiresSQLitePath(t *testing.T) {
	body := strings.Replace(validConfig, `[buffer.durability]
type = "in-memory"`, `[buffer.durability]
type = "sqlite"`, 1)

	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("Load: expected error for sqlite durability without path, got nil")
	}
}
