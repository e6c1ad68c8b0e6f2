package document

import (
	"regexp"
	"strconv"
	"strings"
)

type LineKind int

const (
	LineParagraph LineKind = iota + 1
	LineHeading1
	LineHeading2
	LineHeading3
	LineHeading4
	LineHeading5
	LineHeading6
	LineHorizontalRule
	LineBlockquote
	LineBulletItem
	LineNumberedItem
	LineEmpty
)

var lineKindNames = map[LineKind]string{
	LineParagraph:      "Paragraph",
	LineHeading1:       "Heading1",
	LineHeading2:       "Heading2",
	LineHeading3:       "Heading3",
	LineHeading4:       "Heading4",
	LineHeading5:       "Heading5",
	LineHeading6:       "Heading6",
	LineHorizontalRule: "HorizontalRule",
	LineBlockquote:     "Blockquote",
	LineBulletItem:     "BulletItem",
	LineNumberedItem:   "NumberedItem",
	LineEmpty:          "Empty",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "LineKind(" + strconv.Itoa(int(k)) + ")"
}

// HeadingLevel returns 1-6 for heading kinds and 0 otherwise.
func (k LineKind) HeadingLevel() int {
	if k >= LineHeading1 && k <= LineHeading6 {
		return int(k-LineHeading1) + 1
	}
	return 0
}

func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type lineRule struct {
	kind   LineKind
	prefix *regexp.Regexp
}

// lineRules is evaluated top to bottom and the first match wins.
// Headings go longest marker first so "### a" is never a Heading1.
var lineRules = []lineRule{
	{LineHeading6, regexp.MustCompile(`^######(?:[ \t]+|$)`)},
	{LineHeading5, regexp.MustCompile(`^#####(?:[ \t]+|$)`)},
	{LineHeading4, regexp.MustCompile(`^####(?:[ \t]+|$)`)},
	{LineHeading3, regexp.MustCompile(`^###(?:[ \t]+|$)`)},
	{LineHeading2, regexp.MustCompile(`^##(?:[ \t]+|$)`)},
	{LineHeading1, regexp.MustCompile(`^#(?:[ \t]+|$)`)},
	{LineHorizontalRule, regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)},
	{LineBlockquote, regexp.MustCompile(`^ {0,3}>[ \t]?`)},
	{LineBulletItem, regexp.MustCompile(`^[ \t]*[-*+](?:[ \t]+|$)`)},
	{LineNumberedItem, regexp.MustCompile(`^[ \t]*(\d{1,9})[.)](?:[ \t]+|$)`)},
	{LineEmpty, regexp.MustCompile(`^[ \t]*$`)},
}

// Classify maps a single line of markup to its kind. It is total:
// anything that matches no rule is a paragraph.
func Classify(line string) LineKind {
	kind, _ := classify(line)
	return kind
}

func classify(line string) (LineKind, *regexp.Regexp) {
	for _, rule := range lineRules {
		if rule.prefix.MatchString(line) {
			return rule.kind, rule.prefix
		}
	}
	return LineParagraph, nil
}

// Line is a classified line with its block-level prefix removed.
type Line struct {
	Kind    LineKind
	Content string
	// Number is the item number of a numbered list item.
	Number int
}

func ParseLine(raw string) Line {
	kind, prefix := classify(raw)

	switch kind {
	case LineHorizontalRule, LineEmpty:
		return Line{Kind: kind}
	case LineParagraph:
		return Line{Kind: kind, Content: raw}
	}

	loc := prefix.FindStringSubmatchIndex(raw)
	line := Line{
		Kind:    kind,
		Content: raw[loc[1]:],
	}

	if kind == LineNumberedItem {
		line.Number, _ = strconv.Atoi(raw[loc[2]:loc[3]])
	}

	if kind.HeadingLevel() > 0 {
		line.Content = strings.TrimRight(line.Content, " \t")
	}

	return line
}
