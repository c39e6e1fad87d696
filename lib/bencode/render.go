package bencode

import (
	"strconv"
	"strings"
)

// Render formats v for humans: byte strings quoted (invalid UTF-8 replaced),
// integers in decimal, lists in brackets and dicts in braces with sorted keys.
// The output is not meant to be parsed back.
func Render(v Value) string {
	var sb strings.Builder
	render(&sb, v)
	return sb.String()
}

func render(sb *strings.Builder, v Value) {
	switch t := v.(type) {
	case Bytes:
		renderString(sb, string(t))
	case Int:
		sb.WriteString(strconv.FormatInt(int64(t), 10))
	case List:
		sb.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			render(sb, item)
		}
		sb.WriteByte(']')
	case *Dict:
		sb.WriteByte('{')
		for i, e := range t.sortedEntries() {
			if i > 0 {
				sb.WriteByte(',')
			}
			renderString(sb, e.Key)
			sb.WriteByte(':')
			render(sb, e.Value)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}

func renderString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	sb.WriteString(strings.ToValidUTF8(s, "\uFFFD"))
	sb.WriteByte('"')
}
