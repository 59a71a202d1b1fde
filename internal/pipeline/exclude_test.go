package pipeline

import "testing"

func TestExcluderMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{name: "no patterns", patterns: nil, path: "a.txt", want: false},
		{name: "star suffix", patterns: []string{"*.log"}, path: "dir/app.log", want: true},
		{name: "star crosses separators", patterns: []string{"/tmp/*"}, path: "/tmp/a/b/c", want: true},
		{name: "anchored at end", patterns: []string{"*.log"}, path: "app.log.gz", want: false},
		{name: "anchored at start", patterns: []string{"app*"}, path: "dir/app.txt", want: false},
		{name: "question mark", patterns: []string{"file?.bin"}, path: "file1.bin", want: true},
		{name: "question mark needs one char", patterns: []string{"file?.bin"}, path: "file.bin", want: false},
		{name: "character class", patterns: []string{"*.[ch]"}, path: "main.c", want: true},
		{name: "negated class", patterns: []string{"*.[!ch]"}, path: "main.c", want: false},
		{name: "negated class matches other", patterns: []string{"*.[!ch]"}, path: "main.o", want: true},
		{name: "unclosed bracket is literal", patterns: []string{"a[b"}, path: "a[b", want: true},
		{name: "regexp metacharacters are literal", patterns: []string{"a+b(1).txt"}, path: "a+b(1).txt", want: true},
		{name: "dot is literal", patterns: []string{"a.b"}, path: "axb", want: false},
		{name: "any of several", patterns: []string{"*.tmp", "*.bak"}, path: "x.bak", want: true},
		{name: "exact path", patterns: []string{"/etc/passwd"}, path: "/etc/passwd", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewExcluder(tt.patterns)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := e.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestExcluderNil(t *testing.T) {
	t.Parallel()

	var e *Excluder
	if e.Match("anything") {
		t.Error("nil excluder should match nothing")
	}
	if e.Patterns() != nil {
		t.Error("nil excluder should have no patterns")
	}
}

func TestExcluderPatterns(t *testing.T) {
	t.Parallel()

	e, err := NewExcluder([]string{"*.a", "*.b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := e.Patterns()
	if len(got) != 2 || got[0] != "*.a" || got[1] != "*.b" {
		t.Errorf("unexpected patterns %v", got)
	}
}

func TestNewExcluderInvalidRange(t *testing.T) {
	t.Parallel()

	if _, err := NewExcluder([]string{"[z-a]"}); err == nil {
		t.Error("expected error for reversed range")
	}
}
