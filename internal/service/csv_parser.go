package service

import "strings"

// ParseCSVLine 将一行文本拆分为字段
//
// 双引号切换"字段内"模式，引号内的逗号不作分隔符；不支持 "" 转义。
// 每个字段去除首尾空白。引号未闭合时仍输出已累积的字段，不报错。
func ParseCSVLine(line string) []string {
	fields := make([]string, 0, 8)
	var (
		cur    strings.Builder
		quoted bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// SplitCSVLines 将解码后的文本切分为非空行（兼容 CRLF，去除 UTF-8 BOM）
func SplitCSVLines(text string) []string {
	numbered := splitNumberedLines(text)
	lines := make([]string, 0, len(numbered))
	for _, l := range numbered {
		lines = append(lines, l.text)
	}
	return lines
}

// csvLine 非空行及其在文件中的行号（从 1 开始）
type csvLine struct {
	no   int
	text string
}

func splitNumberedLines(text string) []csvLine {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(text, "\n")

	lines := make([]csvLine, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, csvLine{no: i + 1, text: l})
	}
	return lines
}
