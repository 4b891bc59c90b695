package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramops/bagdesk/internal/logging"
)

func TestReadKeepsNewestLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	var content strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&content, `{"level":"info","timestamp":"2025-07-01T10:00:0%dZ","msg":"line %d"}`+"\n", i%10, i)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		first    string
		count    int
	}{
		{"none", 0, "", 0},
		{"fewer than file", 3, "line 8", 3},
		{"exactly file", 10, "line 1", 10},
		{"more than file", 50, "line 1", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if len(entries) != tt.count {
				t.Fatalf("len = %d, want %d", len(entries), tt.count)
			}
			if tt.count > 0 && entries[0].Message != tt.first {
				t.Fatalf("first = %q, want %q", entries[0].Message, tt.first)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil || entries != nil {
		t.Fatalf("Read = %v, %v, want nil, nil", entries, err)
	}
}

func TestParse(t *testing.T) {
	e := Parse(`{"level":"warn","timestamp":"2025-07-01T10:00:00.000Z","msg":"poll failed","poller":"voyages","records":3,"caller":"x.go:1"}`)
	if e.Level != "warn" || e.Message != "poll failed" {
		t.Fatalf("entry = %#v", e)
	}
	if e.Time.IsZero() {
		t.Fatalf("timestamp not parsed")
	}
	if _, ok := e.Fields["caller"]; ok {
		t.Fatalf("caller should be dropped")
	}
	if got := e.Summary(); got != "poller=voyages records=3" {
		t.Fatalf("Summary = %q", got)
	}

	plain := Parse("  not json  ")
	if plain.Message != "not json" || plain.Level != "" {
		t.Fatalf("plain = %#v", plain)
	}
}

func TestReadsLoggerOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bagdesk.log")
	log, err := logging.New(path, "debug")
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	log.Info("signed in", "email", "ram001@ram.com")
	_ = log.Sync()

	entries, err := Read(path, 10)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %#v", entries)
	}
	if entries[0].Message != "signed in" || entries[0].Fields["email"] != "ram001@ram.com" {
		t.Fatalf("entry = %#v", entries[0])
	}
	if entries[0].Time.IsZero() {
		t.Fatalf("logger timestamp not parsed")
	}
}
