package controllers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscardAttachmentRemovesStoredFile(t *testing.T) {
	uploadPath := t.TempDir()
	t.Setenv("UPLOAD_PATH", uploadPath)

	relPath := filepath.Join("attachments", "2026", "08", "orphan.pdf")
	absPath := filepath.Join(uploadPath, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), os.ModePerm); err != nil {
		t.Fatalf("failed to create upload dir: %v", err)
	}
	if err := os.WriteFile(absPath, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	discardAttachment(&relPath)

	if _, err := os.Stat(absPath); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err: %v", err)
	}
}

func TestDiscardAttachmentNil(t *testing.T) {
	discardAttachment(nil)
}
