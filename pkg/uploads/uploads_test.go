package uploads

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/research-copilot/copilot/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.UploadsConfig{Dir: t.TempDir()}
	cfg.SetDefaults()

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestSaveAndPath(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(strings.NewReader("content"), "report.pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if name != "report.pdf" {
		t.Errorf("expected report.pdf, got %q", name)
	}

	path, err := store.Path(name)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestSaveCollisionSuffixing(t *testing.T) {
	store := newTestStore(t)

	want := []string{"report.pdf", "report_1.pdf", "report_2.pdf"}
	for _, expected := range want {
		name, err := store.Save(strings.NewReader("x"), "report.pdf")
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if name != expected {
			t.Errorf("expected %s, got %s", expected, name)
		}
	}
}

func TestSaveRejectsDisallowedTypes(t *testing.T) {
	store := newTestStore(t)

	for _, filename := range []string{"script.exe", "page.html", "noext"} {
		if _, err := store.Save(strings.NewReader("x"), filename); err == nil {
			t.Errorf("expected error for %s", filename)
		}
	}

	if _, err := store.Save(strings.NewReader("x"), "malware.exe"); !errors.Is(err, ErrDisallowedType) {
		t.Errorf("expected ErrDisallowedType, got %v", err)
	}
}

func TestAllowed(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		filename string
		want     bool
	}{
		{"report.pdf", true},
		{"notes.txt", true},
		{"doc.docx", true},
		{"photo.PNG", true},
		{"script.sh", false},
		{"no_extension", false},
	}

	for _, tt := range tests {
		if got := store.Allowed(tt.filename); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../secret.pdf", "a/b.pdf", ".."} {
		if _, err := store.Path(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestPathUnknownFile(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Path("missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report.pdf", "my_report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"weird$chars!.txt", "weirdchars.txt"},
		{"..", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
