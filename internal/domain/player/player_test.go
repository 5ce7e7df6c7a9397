package player

import "testing"

func TestColorFor(t *testing.T) {
	tests := []struct {
		n    int
		want Color
	}{
		{-1, ColorCyan},
		{0, ColorCyan},
		{1, ColorViolet},
		{2, ColorAmber},
		{3, ColorLime},
		{4, ColorCyan},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.n); got != tt.want {
			t.Errorf("ColorFor(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestNewStartsAtOrigin(t *testing.T) {
	p := New("P1", ColorCyan)
	if p.Position != 0 || p.Score != 0 {
		t.Errorf("Expected fresh player at 0/0, got %d/%d", p.Position, p.Score)
	}
}
