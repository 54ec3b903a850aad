package dotenv

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()
	content := strings.Join([]string{
		"# database",
		"BANKI_DATABASE_URL=postgres://localhost/banki",
		`QUOTED="hello world"`,
		"SINGLE='one two'",
		"export EXPORTED=ok",
		"SPACED =  padded  ",
		"",
		"=no-key",
		"not-a-pair",
		"DUPL=first",
		"DUPL=second",
	}, "\n")

	vars, err := Parse(bufio.NewScanner(strings.NewReader(content)))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := map[string]string{
		"BANKI_DATABASE_URL": "postgres://localhost/banki",
		"QUOTED":             "hello world",
		"SINGLE":             "one two",
		"EXPORTED":           "ok",
		"SPACED":             "padded",
		"DUPL":               "second",
	}
	if len(vars) != len(want) {
		t.Fatalf("parsed %d vars, want %d: %v", len(vars), len(want), vars)
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s = %q, want %q", k, vars[k], v)
		}
	}
}

func TestLoadFile_MissingFileIsNoop(t *testing.T) {
	t.Parallel()
	if err := LoadFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadFile missing file: %v", err)
	}
}

func TestLoadFile_EnvironmentWins(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "FROM_FILE=loaded\nEXISTING=from_file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("EXISTING", "already_set")
	t.Setenv("FROM_FILE", "")
	os.Unsetenv("FROM_FILE")

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := os.Getenv("FROM_FILE"); got != "loaded" {
		t.Errorf("FROM_FILE = %q, want %q", got, "loaded")
	}
	if got := os.Getenv("EXISTING"); got != "already_set" {
		t.Errorf("EXISTING = %q, want existing value preserved", got)
	}
}
