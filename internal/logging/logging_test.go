package logging

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileWritesPayloadVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.log")
	sink, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	sink.Log("m|2026:07:29:00:00:00:000|BUY-TOKEN:abc-OK")
	if err := sink.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("expected at least one line in the log file")
	}
	if got := scanner.Text(); got != "m|2026:07:29:00:00:00:000|BUY-TOKEN:abc-OK" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestNewSilentDiscardsEverything(t *testing.T) {
	sink := NewSilent()
	sink.Log("whatever")
	if err := sink.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
}
