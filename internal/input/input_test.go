package input

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "title.txt")
	if err := os.WriteFile(path, []byte("From a file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ExpandValues([]string{"plain", "-", "@" + path, "@@handle", "@"}, strings.NewReader("piped\r\n"))
	if err != nil {
		t.Fatalf("ExpandValues: %v", err)
	}
	want := []string{"plain", "piped", "From a file", "@handle", "@"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandValuesErrors(t *testing.T) {
	if _, err := ExpandValues([]string{"-", "-"}, strings.NewReader("x")); !errors.Is(err, ErrStdinReused) {
		t.Errorf("double stdin: got %v", err)
	}
	if _, err := ExpandValues([]string{"@" + filepath.Join(t.TempDir(), "missing")}, nil); err == nil {
		t.Error("expected error for missing file")
	}
}
