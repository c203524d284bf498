package s3store

import "testing"

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"insight", "insight/"},
		{"insight/", "insight/"},
		{"/a/b/", "a/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var st settings
			WithPrefix(tt.input)(&st)
			if st.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", st.prefix, tt.want)
			}
		})
	}
}

func TestStore_objectKey(t *testing.T) {
	s := &Store{prefix: "cache/"}

	tests := []struct {
		key  string
		want string
	}{
		{"months", "cache/months"},
		{"2024-02%blitz%alice", "cache/2024-02%25blitz%25alice"},
		{"a/b", "cache/a%2Fb"},
	}
	for _, tt := range tests {
		got := s.objectKey(tt.key)
		if got != tt.want {
			t.Errorf("objectKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
		back, ok := s.keyOf(got)
		if !ok || back != tt.key {
			t.Errorf("keyOf(%q) = %q, %v, want %q", got, back, ok, tt.key)
		}
	}
}

func TestStore_keyOf_OutsidePrefix(t *testing.T) {
	s := &Store{prefix: "cache/"}
	if _, ok := s.keyOf("other/months"); ok {
		t.Error("keyOf() accepted an object outside the prefix")
	}
	if _, ok := s.keyOf("cache/"); ok {
		t.Error("keyOf() accepted the bare prefix")
	}
}
