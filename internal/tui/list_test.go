package tui

import (
	"strings"
	"testing"

	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
)

func TestFormatHot(t *testing.T) {
	tests := []struct {
		hot  float64
		want string
	}{
		{0, ""},
		{999, "999"},
		{15000, "1.5万"},
		{230000000, "2.3亿"},
	}
	for _, tt := range tests {
		if got := formatHot(tt.hot); got != tt.want {
			t.Errorf("formatHot(%v) = %q, want %q", tt.hot, got, tt.want)
		}
	}
}

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"a very long title here", 10, "a very..."},
		{"热搜标题特别长的情况", 6, "热搜标..."},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateStr(tt.input, tt.n); got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestRenderItemsEmpty(t *testing.T) {
	got := renderItems(nil, 0, 10, 80)
	if !strings.Contains(got, "no items") {
		t.Errorf("expected empty placeholder, got %q", got)
	}
}

func TestRenderItemsScrollsToCursor(t *testing.T) {
	var items []hotlist.Item
	for i := 0; i < 50; i++ {
		items = append(items, hotlist.Item{Title: "item"})
	}
	// Cursor far below the window: render should not panic and should
	// include the selected marker.
	got := renderItems(items, 45, 10, 80)
	if !strings.Contains(got, ">") {
		t.Error("expected selected item in view")
	}
}
