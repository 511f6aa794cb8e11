package tui

import (
	"fmt"
	"strings"

	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
)

func formatHot(hot float64) string {
	switch {
	case hot >= 1e8:
		return fmt.Sprintf("%.1f亿", hot/1e8)
	case hot >= 1e4:
		return fmt.Sprintf("%.1f万", hot/1e4)
	case hot > 0:
		return fmt.Sprintf("%.0f", hot)
	default:
		return ""
	}
}

func renderItem(rank int, it hotlist.Item, selected bool, width int) string {
	prefix := fmt.Sprintf("%2d. ", rank)

	title := truncateStr(it.Title, width-len(prefix)-10)
	var line string
	if selected {
		line = itemSelectedStyle.Render("> " + prefix + title)
	} else {
		line = "  " + itemRankStyle.Render(prefix) + itemTitleStyle.Render(title)
	}

	if hot := formatHot(it.Hot); hot != "" {
		line += " " + itemHotStyle.Render(hot)
	}

	if selected && it.Desc != "" {
		line += "\n    " + itemDescStyle.Render(truncateStr(it.Desc, width-6))
	}
	return line
}

func renderItems(items []hotlist.Item, cursor, height, width int) string {
	if len(items) == 0 {
		return "\n  no items"
	}

	// Selected item takes an extra description line.
	visible := height - 1
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderItem(i+1, items[i], i == cursor, width))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
