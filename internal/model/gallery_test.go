package model

import "testing"

func TestParseFileType(t *testing.T) {
	for _, s := range []string{"image", "video"} {
		got, err := ParseFileType(s)
		if err != nil {
			t.Errorf("ParseFileType(%q) error = %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseFileType(%q) = %q", s, got)
		}
	}

	for _, s := range []string{"", "audio", "Image", " video"} {
		if got, err := ParseFileType(s); err == nil {
			t.Errorf("ParseFileType(%q) = %q, want error", s, got)
		}
	}
}
