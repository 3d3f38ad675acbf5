package render

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	dashReplacer = strings.NewReplacer("—", "-", "–", "-")

	// 仅由 5 个以上 -=_ 组成的分隔线
	ruleLinePattern = regexp.MustCompile(`^[-=_]{5,}$`)
)

// Cleanup 规范化 Markdown 文本，幂等
//  1. em/en dash 替换为 -
//  2. 去掉每行行尾空白
//  3. 删除分隔线
//  4. 连续空行压缩为一个
//  5. 去掉首尾空行，结尾保留一个换行
//
// 围栏代码块（``` 或 ~~~）内的行原样保留，不参与 1 到 4
func Cleanup(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var (
		fence     codeFence
		lines     = strings.Split(s, "\n")
		kept      = make([]string, 0, len(lines))
		prevBlank bool
	)
	for _, line := range lines {
		if fence.open() {
			if fence.closes(line) {
				fence = codeFence{}
				line = strings.TrimRightFunc(line, unicode.IsSpace)
			}
			kept = append(kept, line)
			prevBlank = false
			continue
		}

		line = strings.TrimRightFunc(dashReplacer.Replace(line), unicode.IsSpace)
		if f, ok := openFence(line); ok {
			fence = f
			kept = append(kept, line)
			prevBlank = false
			continue
		}
		if ruleLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		blank := line == ""
		if blank && prevBlank {
			continue
		}
		kept = append(kept, line)
		prevBlank = blank
	}

	s = strings.Trim(strings.Join(kept, "\n"), "\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}

// codeFence 当前打开的围栏；char 为 0 表示不在代码块内
type codeFence struct {
	char byte
	size int
}

func (f codeFence) open() bool { return f.char != 0 }

// closes 关闭行只能由同种字符组成，且不短于开启行
func (f codeFence) closes(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= f.size && strings.Trim(t, string(f.char)) == ""
}

func openFence(line string) (codeFence, bool) {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 || len(t) < 3 {
		return codeFence{}, false
	}
	c := t[0]
	if c != '`' && c != '~' {
		return codeFence{}, false
	}
	n := 0
	for n < len(t) && t[n] == c {
		n++
	}
	if n < 3 {
		return codeFence{}, false
	}
	// 反引号围栏的 info string 不能再含反引号
	if c == '`' && strings.ContainsRune(t[n:], '`') {
		return codeFence{}, false
	}
	return codeFence{char: c, size: n}, true
}
