package chat

import "strings"

// NormalizeTitle 은 제목 후보의 앞뒤 공백을 걷어내고 maxRunes 글자로 자른다.
// 내용은 그대로 둔다. "<" 같은 문자도 사용자가 쓴 그대로 제목에 남는다.
func NormalizeTitle(candidate string, maxRunes int) string {
	return truncateRunes(strings.TrimSpace(candidate), maxRunes)
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return strings.TrimSpace(s[:i])
		}
		n++
	}
	return s
}
