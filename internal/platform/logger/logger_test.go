package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)

	l.Infof("room %s created", "alpha")
	l.Warn("slow client")
	l.Errorf("save failed: %d", 3)
	l.Event("DICE_RESOLVED", "p1", "rolled 4")

	tests := []struct {
		buf  *bytes.Buffer
		want string
	}{
		{&out, "[SHIFT-INFO] "},
		{&out, "room alpha created"},
		{&out, "[SHIFT-WARN] "},
		{&out, "[EVENT:DICE_RESOLVED] Actor:p1 | rolled 4"},
		{&errOut, "[SHIFT-ERROR] "},
		{&errOut, "save failed: 3"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.buf.String(), tt.want) {
			t.Errorf("Expected output to contain %q, got %q", tt.want, tt.buf.String())
		}
	}
}

func TestDebugIsGated(t *testing.T) {
	var out bytes.Buffer
	l := NewWithWriters(&out, &out)

	l.Debugf("hidden %d", 1)
	if out.Len() != 0 {
		t.Fatalf("Expected no debug output, got %q", out.String())
	}

	l.SetDebug(true)
	l.Debugf("shown %d", 2)
	if !strings.Contains(out.String(), "[SHIFT-DEBUG] ") || !strings.Contains(out.String(), "shown 2") {
		t.Errorf("Expected debug line, got %q", out.String())
	}
}
