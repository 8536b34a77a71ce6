package templater

import "testing"

func TestPlaceholder(t *testing.T) {
	tests := map[int]string{
		0:  "{X}",
		1:  "{Y}",
		2:  "{Z}",
		3:  "{A}",
		25: "{W}",
		26: "{X2}",
		52: "{X3}",
	}
	for i, want := range tests {
		if got := Placeholder(i); got != want {
			t.Errorf("Placeholder(%d) = %s, want %s", i, got, want)
		}
	}
}

func TestParsePlaceholder(t *testing.T) {
	tests := []struct {
		in    string
		size  int
		index int
		ok    bool
	}{
		{"{X}", 3, 0, true},
		{"{A} apples", 3, 3, true},
		{"{X2}", 4, 26, true},
		{"{Z1}", 4, 2, true},
		{"{x}", 0, 0, false},
		{"{X", 0, 0, false},
		{"{12}", 0, 0, false},
	}
	for _, tt := range tests {
		size, index, ok := parsePlaceholder(tt.in)
		if size != tt.size || index != tt.index || ok != tt.ok {
			t.Errorf("parsePlaceholder(%q) = %d, %d, %v; want %d, %d, %v",
				tt.in, size, index, ok, tt.size, tt.index, tt.ok)
		}
	}
	for i := 0; i < 80; i++ {
		p := Placeholder(i)
		size, index, ok := parsePlaceholder(p)
		if !ok || size != len(p) || index != i {
			t.Fatalf("round trip %d: %s -> %d, %d, %v", i, p, size, index, ok)
		}
	}
}
