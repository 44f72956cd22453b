package cnf

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cfg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigParsesKeyValues(t *testing.T) {
	path := writeConfig(t, `
# comment
DB_ENGINE=sqlite
DB_PATH=/tmp/test.db  # inline comment
PORT=9090

; another comment
SECRET_KEY=abc123
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg["DB_ENGINE"] != "sqlite" {
		t.Errorf("DB_ENGINE = %q", cfg["DB_ENGINE"])
	}
	if cfg["DB_PATH"] != "/tmp/test.db" {
		t.Errorf("inline comment not stripped: %q", cfg["DB_PATH"])
	}
	if cfg["PORT"] != "9090" {
		t.Errorf("PORT = %q", cfg["PORT"])
	}
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	path := writeConfig(t, "PORT=8080\n")
	t.Setenv("PORT", "9999")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg["PORT"] != "9999" {
		t.Errorf("environment should override file, got %q", cfg["PORT"])
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.cfg"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected an empty map")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	ac, err := ParseConfig(map[string]string{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if ac.DBEngine != "sqlite" {
		t.Errorf("DBEngine = %q", ac.DBEngine)
	}
	if ac.DataDir != "./data" {
		t.Errorf("DataDir = %q", ac.DataDir)
	}
	if ac.DBPath != "./data/wellatlas.db" {
		t.Errorf("DBPath = %q", ac.DBPath)
	}
	if ac.Port != "8080" {
		t.Errorf("Port = %q", ac.Port)
	}
	if ac.UploadMaxMB != 200 {
		t.Errorf("UploadMaxMB = %d", ac.UploadMaxMB)
	}
}

func TestParseConfigInvalidUploadMax(t *testing.T) {
	if _, err := ParseConfig(map[string]string{"UPLOAD_MAX_MB": "-5"}); err == nil {
		t.Fatal("negative UPLOAD_MAX_MB should be rejected")
	}
	if _, err := ParseConfig(map[string]string{"UPLOAD_MAX_MB": "abc"}); err == nil {
		t.Fatal("non-numeric UPLOAD_MAX_MB should be rejected")
	}
}

func TestBackupConfigured(t *testing.T) {
	ac := AppConfig{
		BackupBucket:    "b",
		BackupRegion:    "r",
		BackupAccessKey: "a",
		BackupSecretKey: "s",
	}
	if !ac.BackupConfigured() {
		t.Error("full credentials should count as configured")
	}
	ac.BackupSecretKey = ""
	if ac.BackupConfigured() {
		t.Error("partial credentials should not count as configured")
	}
}
