package envutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nPLAIN=value\nQUOTED=\"with spaces\"\nEMPTYKEY=\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("PLAIN", "")
	os.Unsetenv("PLAIN")
	t.Setenv("QUOTED", "")
	os.Unsetenv("QUOTED")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("PLAIN"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := os.Getenv("QUOTED"); got != "with spaces" {
		t.Fatalf("expected unquoted value, got %q", got)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("KEEP=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("KEEP", "process")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("KEEP"); got != "process" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file must not error, got %v", err)
	}
}

func TestWriteDotEnvRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	values := map[string]string{"B_KEY": "plain", "A_KEY": "has space"}
	if err := WriteDotEnv(path, values, false); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "A_KEY=\"has space\"\nB_KEY=plain\n"
	if string(data) != want {
		t.Fatalf("unexpected file content %q", string(data))
	}

	if err := WriteDotEnv(path, values, false); err == nil {
		t.Fatalf("expected error without overwrite")
	}
	if err := WriteDotEnv(path, values, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
