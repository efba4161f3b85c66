package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTextReadsPlainTextFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	text, err := Text(context.Background(), path)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestTextRejectsUnsupportedExtensions(t *testing.T) {
	for _, name := range []string{"photo.png", "photo.jpg", "archive.zip"} {
		if _, err := Text(context.Background(), name); err == nil {
			t.Errorf("expected error for %s", name)
		}
	}
}

func TestPDFTextMissingFile(t *testing.T) {
	if _, err := PDFText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPDFTextCancelledContext(t *testing.T) {
	// A malformed PDF fails at parse, before any page is read.
	path := filepath.Join(t.TempDir(), "bad.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := PDFText(ctx, path); err == nil {
		t.Fatal("expected error for malformed PDF")
	}
}
