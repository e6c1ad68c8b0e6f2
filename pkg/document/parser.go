package document

import (
	"regexp"
	"strings"
)

const defaultFence = "```"

var (
	fenceOpenRe  = regexp.MustCompile("^(`{3,}|~{3,})(.*)$")
	fenceCloseRe = regexp.MustCompile("^(`{3,}|~{3,})[ \t]*$")
)

// IsFenceOpen reports whether line opens a fenced code region and
// returns the fence and the trimmed language token.
func IsFenceOpen(line string) (fence, language string, ok bool) {
	m := fenceOpenRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	fence, info := m[1], m[2]
	// An info string of a backtick fence cannot contain backticks,
	// otherwise "```a```" would be a fence instead of inline code.
	if fence[0] == '`' && strings.Contains(info, "`") {
		return "", "", false
	}
	return fence, strings.TrimSpace(info), true
}

// closesFence reports whether line is a bare closing fence for the
// opening fence: the same character repeated at least as many times.
func closesFence(line, fence string) bool {
	m := fenceCloseRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	return m[1][0] == fence[0] && len(m[1]) >= len(fence)
}

// NormalizeLineBreaks converts CRLF and lone CR line breaks to LF.
func NormalizeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Parse splits canonical text into blocks. Fenced regions become code
// blocks and every other line becomes one rendered text line with its
// raw content kept verbatim. An unterminated fence consumes the rest of
// the input. Empty input yields a single empty line.
func Parse(source string, opts ...Option) *Document {
	d := newEmpty(opts...)
	for _, block := range parseBlocks(source) {
		d.Append(block)
	}
	d.ensureNotEmpty()
	return d
}

// ParseBlocks is like Parse but returns detached blocks, suitable for
// inserting into an existing document.
func ParseBlocks(source string) Blocks {
	return parseBlocks(source)
}

func parseBlocks(source string) (result Blocks) {
	lines := strings.Split(source, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		fence, language, ok := IsFenceOpen(line)
		if !ok {
			result = append(result, NewTextLine(line))
			continue
		}

		var code []string
		for i++; i < len(lines); i++ {
			if closesFence(lines[i], fence) {
				break
			}
			code = append(code, lines[i])
		}

		block := NewCodeBlock(language, strings.Join(code, "\n"))
		block.fence = fence
		result = append(result, block)
	}

	return result
}
