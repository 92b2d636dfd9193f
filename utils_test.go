package lockbox_test

import (
	"strings"
	"testing"

	"github.com/lockbox-storage/lockbox"
)

func TestIsValidFileName(t *testing.T) {
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name     string
		FileName string
		Want     bool
	}{
		{Name: "simple", FileName: "cat.png", Want: true},
		{Name: "with spaces", FileName: "my report.pdf", Want: true},
		{Name: "unicode", FileName: "résumé.pdf", Want: true},
		{Name: "dots inside", FileName: "a..b.png", Want: true},
		{Name: "percent and underscore", FileName: "100%_done.png", Want: true},
		{Name: "max length", FileName: strings.Repeat("a", 255), Want: true},

		{Name: "empty", FileName: "", Want: false},
		{Name: "single dot", FileName: ".", Want: false},
		{Name: "double dot", FileName: "..", Want: false},
		{Name: "slash", FileName: "a/b.png", Want: false},
		{Name: "traversal", FileName: "../b.png", Want: false},
		{Name: "backslash", FileName: `a\b.png`, Want: false},
		{Name: "null byte", FileName: "a\x00b", Want: false},
		{Name: "newline", FileName: "a\nb", Want: false},
		{Name: "delete char", FileName: "a\x7fb", Want: false},
		{Name: "invalid utf8", FileName: invalidUTF8, Want: false},
		{Name: "too long", FileName: strings.Repeat("a", 256), Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got := lockbox.IsValidFileName(tc.FileName); got != tc.Want {
				t.Errorf("IsValidFileName(%q) = %v, want %v", tc.FileName, got, tc.Want)
			}
		})
	}
}

func TestIsValidCallerID(t *testing.T) {
	tt := []struct {
		Name string
		ID   string
		Want bool
	}{
		{Name: "cognito sub", ID: "3f1c2a7e-5b9d-4c1e-8a2b-9d0e1f2a3b4c", Want: true},
		{Name: "email like", ID: "alice@example.com", Want: true},
		{Name: "empty", ID: "", Want: false},
		{Name: "dot dot", ID: "..", Want: false},
		{Name: "slash", ID: "u1/u2", Want: false},
		{Name: "backslash", ID: `u1\u2`, Want: false},
		{Name: "control char", ID: "u1\t", Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got := lockbox.IsValidCallerID(tc.ID); got != tc.Want {
				t.Errorf("IsValidCallerID(%q) = %v, want %v", tc.ID, got, tc.Want)
			}
		})
	}
}

func TestIsValidKey(t *testing.T) {
	tt := []struct {
		Name string
		Key  string
		Want bool
	}{
		{Name: "literal key", Key: "u1/cat.png", Want: true},
		{Name: "unique key", Key: "u1/0b6f3a8e-7c1d-4f2a-9e3b-5d4c3b2a1f0e/cat.png", Want: true},
		{Name: "single segment", Key: "cat.png", Want: true},
		{Name: "spaces", Key: "u1/my report.pdf", Want: true},

		{Name: "empty", Key: "", Want: false},
		{Name: "leading slash", Key: "/u1/cat.png", Want: false},
		{Name: "trailing slash", Key: "u1/", Want: false},
		{Name: "double slash", Key: "u1//cat.png", Want: false},
		{Name: "dot segment", Key: "u1/./cat.png", Want: false},
		{Name: "dot dot segment", Key: "u1/../u2/cat.png", Want: false},
		{Name: "backslash", Key: `u1\cat.png`, Want: false},
		{Name: "null byte", Key: "u1/cat\x00.png", Want: false},
		{Name: "too long", Key: strings.Repeat("a", 1025), Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got := lockbox.IsValidKey(tc.Key); got != tc.Want {
				t.Errorf("IsValidKey(%q) = %v, want %v", tc.Key, got, tc.Want)
			}
		})
	}
}
