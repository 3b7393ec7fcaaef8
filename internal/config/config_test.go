package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Server.ChatSource = ChatSourceMessages
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.Server.ChatSource != ChatSourceMessages {
		t.Errorf("ChatSource = %q, want %q", loaded.Server.ChatSource, ChatSourceMessages)
	}
	if loaded.Presence.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", loaded.Presence.HeartbeatInterval)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[server]\nlisten = \"unix:///tmp/c.sock\"\n\n[presence]\nheartbeat_interval = \"10s\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != "unix:///tmp/c.sock" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Presence.HeartbeatInterval != 10*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 10s", cfg.Presence.HeartbeatInterval)
	}
	if cfg.Presence.OfflineAfter != 2*time.Minute {
		t.Errorf("OfflineAfter = %v, want default 2m", cfg.Presence.OfflineAfter)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultAppliesEnv(t *testing.T) {
	t.Setenv("CHATRISE_LISTEN", "0.0.0.0:9000")
	t.Setenv("CHATRISE_OFFLINE_AFTER", "5m")
	t.Setenv("CHATRISE_MAX_ATTACHMENT_BYTES", "1024")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Presence.OfflineAfter != 5*time.Minute {
		t.Errorf("OfflineAfter = %v", cfg.Presence.OfflineAfter)
	}
	if cfg.Server.MaxAttachment != 1024 {
		t.Errorf("MaxAttachment = %d", cfg.Server.MaxAttachment)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CHATRISE_JWT_SECRET=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATRISE_JWT_SECRET", "")
	_ = os.Unsetenv("CHATRISE_JWT_SECRET")

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	ApplyEnv(cfg)
	if cfg.Server.JWTSecret != "from-dotenv" {
		t.Errorf("JWTSecret = %q, want from-dotenv", cfg.Server.JWTSecret)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
