package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" || cfg.StaticPath != "./web" {
		t.Fatalf("basics = %+v", cfg)
	}
	if cfg.ReadLimit != 16<<20 || cfg.PingPeriod != 20*time.Second || cfg.PongWait != 30*time.Second || cfg.SendBuffer != 256 {
		t.Fatalf("transport = %+v", cfg)
	}
	if cfg.Capture.ScreenWidth != 1920 || cfg.Capture.ScreenHeight != 1080 {
		t.Fatalf("capture = %+v", cfg.Capture)
	}
	if cfg.Input.Backend != "headless" || cfg.Limits.JoinWindow != time.Minute || cfg.Journal.Path != "" {
		t.Fatalf("misc = %+v", cfg)
	}
}

func TestFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := "mode: debug\nport: 9000\ncapture:\n  screen_width: 1280\n  screen_height: 720\nallowed_origins:\n  - http://a.example\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RDESK_PORT", "9100")
	t.Setenv("RDESK_INPUT_BACKEND", "xdotool")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug() || cfg.Port != 9100 || cfg.Input.Backend != "xdotool" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Capture.ScreenWidth != 1280 || len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://a.example" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("RDESK_INPUT_BACKEND", "robot")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
