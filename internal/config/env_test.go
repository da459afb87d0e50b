package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# comment
STREAM_BRIDGE_TEST_A=plain
STREAM_BRIDGE_TEST_B="double quoted"
STREAM_BRIDGE_TEST_C='single quoted'

not-a-pair
=nokey
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STREAM_BRIDGE_TEST_A", "")
	t.Setenv("STREAM_BRIDGE_TEST_B", "")
	t.Setenv("STREAM_BRIDGE_TEST_C", "")

	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{
		"STREAM_BRIDGE_TEST_A": "plain",
		"STREAM_BRIDGE_TEST_B": "double quoted",
		"STREAM_BRIDGE_TEST_C": "single quoted",
	} {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q; want %q", key, got, want)
		}
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing file should be a no-op; got %v", err)
	}
}
