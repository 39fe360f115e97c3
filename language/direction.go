// Package language selects a deterministic translation direction for a text
// payload.
package language

import "github.com/goliatone/go-chatbridge/core"

// SelectDirection scans code points and treats the text as Chinese when any
// falls in the CJK Unified Ideographs block (U+4E00..U+9FFF) or Extension A
// (U+3400..U+4DBF). The first qualifying code point short-circuits the scan.
func SelectDirection(text string) core.Direction {
	if ContainsChinese(text) {
		return core.DirectionChineseToEnglish
	}
	return core.DirectionEnglishToChinese
}

func ContainsChinese(text string) bool {
	for _, r := range text {
		if (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF) {
			return true
		}
	}
	return false
}
