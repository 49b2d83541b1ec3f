package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	controlCharPattern    = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	zeroWidthPattern      = regexp.MustCompile(`[\x{200b}-\x{200f}\x{2028}-\x{202f}\x{2060}-\x{206f}\x{feff}\x{fff9}-\x{fffc}]`)
	malformedBoldPattern  = regexp.MustCompile(`\*{3,}`)
	excessNewlinesPattern = regexp.MustCompile(`\n{3,}`)
	multipleSpacesPattern = regexp.MustCompile(` {2,}`)
	trailingSpacePattern  = regexp.MustCompile(`(?m)[ \t]+$`)
	listPrefixPattern     = regexp.MustCompile(`^(\s*[-*]|\s*\d+\.)\s*`)
	starBulletPattern     = regexp.MustCompile(`(?m)^(\s*)\* `)
	headingPattern        = regexp.MustCompile(`^#{1,6}\s+\S`)
)

func stripInvisible(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	text = zeroWidthPattern.ReplaceAllString(text, "")
	return text
}

// SanitizeMarkdown normalizes generated digest markdown before it is stored.
func SanitizeMarkdown(content string) string {
	if content == "" {
		return ""
	}

	content = stripInvisible(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = controlCharPattern.ReplaceAllString(content, "")
	content = malformedBoldPattern.ReplaceAllString(content, "**")
	content = fixUnbalancedBold(content)
	content = excessNewlinesPattern.ReplaceAllString(content, "\n\n")
	content = trailingSpacePattern.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	normalized := make([]string, 0, len(lines))
	for i, line := range lines {
		if prefix := listPrefixPattern.FindString(line); prefix != "" {
			line = prefix + multipleSpacesPattern.ReplaceAllString(line[len(prefix):], " ")
		} else {
			line = multipleSpacesPattern.ReplaceAllString(line, " ")
		}
		normalized = append(normalized, line)

		if headingPattern.MatchString(line) && i+1 < len(lines) && lines[i+1] != "" {
			normalized = append(normalized, "")
		}
	}
	content = strings.Join(normalized, "\n")

	content = starBulletPattern.ReplaceAllString(content, "$1- ")
	return strings.TrimSpace(content)
}

// fixUnbalancedBold drops a dangling trailing "**" on lines with an odd marker count.
func fixUnbalancedBold(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Count(line, "**")%2 == 0 {
			continue
		}
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmed, "**") {
			lines[i] = strings.TrimRight(strings.TrimSuffix(trimmed, "**"), " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// SanitizeHeadlineField flattens a provider field to one clean line of at most maxLength bytes.
func SanitizeHeadlineField(text string, maxLength int) string {
	if text == "" {
		return ""
	}

	text = stripInvisible(text)
	text = controlCharPattern.ReplaceAllString(text, "")
	text = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ").Replace(text)
	text = multipleSpacesPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return TruncateAtWord(text, maxLength)
}

// TruncateAtWord cuts text to maxLength on a word boundary and appends "...".
func TruncateAtWord(text string, maxLength int) string {
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}

	cut := text[:maxLength]
	for len(cut) > 0 && !validBoundary(cut) {
		cut = cut[:len(cut)-1]
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}

func validBoundary(s string) bool {
	return strings.ToValidUTF8(s, "") == s
}
