package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestDirSink_Offer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := DirSink{Dir: dir, Log: zerolog.Nop()}

	if err := sink.Offer("event-张三-2023-12-31.ics", "text/calendar;charset=utf-8", []byte("BEGIN:VCALENDAR")); err != nil {
		t.Fatalf("Offer() error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "event-张三-2023-12-31.ics"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "BEGIN:VCALENDAR" {
		t.Errorf("content = %q", got)
	}
}

func TestDirSink_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	sink := DirSink{Dir: dir, Log: zerolog.Nop()}
	if err := sink.Offer("x.png", "image/png", []byte{1}); err != nil {
		t.Fatalf("Offer() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "x.png")); err != nil {
		t.Errorf("file missing: %v", err)
	}
}
