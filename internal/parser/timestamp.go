package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// 依次尝试完整字符串、截断到微秒、截断到毫秒
var truncateLengths = []int{26, 23}

// ParseTimestamp 把时间戳解析为Unix秒。支持数字形式的Unix秒与ISO-8601字符串，
// ISO-8601字符串无法解析时依次截断后再试
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	candidates := []string{s}
	for _, l := range truncateLengths {
		if len(s) > l {
			candidates = append(candidates, s[:l])
		}
	}
	for _, candidate := range candidates {
		for _, layout := range timestampLayouts {
			t, err := time.Parse(layout, candidate)
			if err == nil {
				return float64(t.Unix()) + float64(t.Nanosecond())/1e9, nil
			}
		}
	}
	return 0, fmt.Errorf("unsupported timestamp format %q", s)
}
