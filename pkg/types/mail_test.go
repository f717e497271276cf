package types

import "testing"

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		body string
		max  int
		want string
	}{
		{"short body untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long body truncated", "hello world", 5, "hello..."},
		{"multibyte runes", "héllö wörld", 5, "héllö..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := &Mail{Body: tc.body}
			if got := m.Preview(tc.max); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.max, got, tc.want)
			}
		})
	}
}

func TestInboxPageNeighbors(t *testing.T) {
	tests := []struct {
		name         string
		current      int
		total        int
		wantNext     bool
		wantPrevious bool
	}{
		{"only page", 0, 1, false, false},
		{"first of three", 0, 3, true, false},
		{"middle", 1, 3, true, true},
		{"last", 2, 3, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &InboxPage{CurrentPage: tc.current, TotalPages: tc.total}
			if p.HasNextPage() != tc.wantNext {
				t.Errorf("HasNextPage() = %v, want %v", p.HasNextPage(), tc.wantNext)
			}
			if p.HasPreviousPage() != tc.wantPrevious {
				t.Errorf("HasPreviousPage() = %v, want %v", p.HasPreviousPage(), tc.wantPrevious)
			}
		})
	}
}
