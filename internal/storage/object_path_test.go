package storage

import (
	"strings"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"avatar", "avatar"},
		{"AVATAR", "avatar"},
		{"  cover  ", "cover"},
		{"../../etc/passwd", "etcpasswd"},
		{"a b c", "abc"},
		{"中文", ""},
		{"snake_case-ok", "snake_case-ok"},
	}
	for _, tc := range cases {
		if got := sanitizePathSegment(tc.in); got != tc.want {
			t.Errorf("sanitizePathSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeExtension(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"png", "png"},
		{".PNG", "png"},
		{"", "bin"},
		{"  .jpeg ", "jpeg"},
	}
	for _, tc := range cases {
		if got := normalizeExtension(tc.in); got != tc.want {
			t.Errorf("normalizeExtension(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildObjectPath(t *testing.T) {
	key := buildObjectPath("Avatar", "My File", "PNG")
	if !strings.HasPrefix(key, "avatar/") {
		t.Fatalf("分类段应被归一化: %q", key)
	}
	if !strings.HasSuffix(key, "my-file.png") {
		t.Fatalf("文件名应被归一化: %q", key)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("路径不应包含上跳段: %q", key)
	}
}

func TestBuildObjectPath_空白输入有兜底(t *testing.T) {
	key := buildObjectPath("", "", "")
	if !strings.HasPrefix(key, "misc/") {
		t.Fatalf("空分类应落到 misc: %q", key)
	}
	if !strings.HasSuffix(key, ".bin") {
		t.Fatalf("空扩展名应落到 bin: %q", key)
	}
}

func TestJoinPrefix(t *testing.T) {
	if got := joinPrefix("uploads/", "/a/b.png"); got != "uploads/a/b.png" {
		t.Errorf("joinPrefix = %q", got)
	}
	if got := joinPrefix("", "a/b.png"); got != "a/b.png" {
		t.Errorf("空前缀 joinPrefix = %q", got)
	}
}
