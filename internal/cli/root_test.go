package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// testEnv isolates a test from the real home directory and returns
// --db and --config flags pointing into a temp dir.
func testEnv(t *testing.T) []string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	return []string{
		"--db", filepath.Join(tmp, "listings.db"),
		"--config", filepath.Join(tmp, "config.yaml"),
	}
}

// run executes args with the test environment flags appended.
func run(t *testing.T, env []string, args ...string) string {
	t.Helper()
	output, err := executeCommand(append(args, env...)...)
	if err != nil {
		t.Fatalf("pl %v: %v\n%s", args, err, output)
	}
	return output
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	for _, name := range []string{"db", "config"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestVersion(t *testing.T) {
	output, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != Version+"\n" {
		t.Errorf("output = %q, want %q", output, Version+"\n")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsSecure(t *testing.T) {
	if !isSecure("https://listings.example.com") {
		t.Error("https base URL should be secure")
	}
	if isSecure("http://localhost:8080") {
		t.Error("http base URL should not be secure")
	}
}
