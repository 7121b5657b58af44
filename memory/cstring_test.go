package memory

import "testing"

func TestCString_RoundTrip(t *testing.T) {
	a := NewArena(0)
	tests := []string{"", "mysound.wav", "C:\\media\\my file.avi"}
	for _, s := range tests {
		ptr, err := WriteCString(a, s)
		if err != nil {
			t.Fatalf("WriteCString(%q): %v", s, err)
		}
		got, err := ReadCString(a, ptr)
		if err != nil {
			t.Fatalf("ReadCString: %v", err)
		}
		if got != s {
			t.Errorf("round trip = %q, want %q", got, s)
		}
		FreeCString(a, ptr)
	}
	if a.Live() != 0 {
		t.Errorf("Live() = %d after freeing strings", a.Live())
	}
}

func TestReadCString_Null(t *testing.T) {
	s, err := ReadCString(NewArena(0), 0)
	if err != nil || s != "" {
		t.Errorf("ReadCString(0) = %q, %v", s, err)
	}
}

func TestReadCString_Unterminated(t *testing.T) {
	a := NewArena(0)
	ptr, _ := a.Alloc(4, 1)
	_ = a.Write(ptr, []byte("abcd"))
	if _, err := ReadCString(a, ptr); err == nil {
		t.Error("expected error reading past end")
	}
}

func TestPutBuffer(t *testing.T) {
	tests := []struct {
		name      string
		size      uint32
		in        string
		want      string
		truncated bool
	}{
		{"fits", 16, "playing", "playing", false},
		{"exact with terminator", 8, "playing", "playing", false},
		{"truncated", 5, "playing", "play", true},
		{"one byte", 1, "x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArena(0)
			buf, _ := a.Alloc(tt.size, 1)
			truncated, err := PutBuffer(a, buf, tt.size, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if truncated != tt.truncated {
				t.Errorf("truncated = %v, want %v", truncated, tt.truncated)
			}
			got, _ := ReadCString(a, buf)
			if got != tt.want {
				t.Errorf("buffer = %q, want %q", got, tt.want)
			}
		})
	}
}
