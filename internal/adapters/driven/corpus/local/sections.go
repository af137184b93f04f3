package local

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
)

// section is one indexed passage of the rulebook: a heading plus the
// text beneath it, with token sets precomputed for scoring.
type section struct {
	title   string
	ref     string
	content string

	titleTokens map[string]bool
	bodyTokens  map[string]bool
}

// titleWeight and bodyWeight set how much a query token hitting the
// section heading counts relative to a body hit. Scores are normalised
// by the per-token maximum so they land in [0, 1].
const (
	titleWeight = 2.0
	bodyWeight  = 1.0
)

// match rates the section against the query tokens. Each distinct token
// earns credit for a heading hit and a body hit independently; the sum
// is divided by the best possible credit so a section that matches every
// token in both places scores 1.0.
func (s *section) match(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	var credit float64
	for _, tok := range tokens {
		if hit(s.titleTokens, tok) {
			credit += titleWeight
		}
		if hit(s.bodyTokens, tok) {
			credit += bodyWeight
		}
	}

	return credit / ((titleWeight + bodyWeight) * float64(len(tokens)))
}

// hit checks token membership with tolerance for a trailing plural s,
// matching "tires" against "tire" and the other way round.
func hit(set map[string]bool, tok string) bool {
	if set[tok] || set[tok+"s"] {
		return true
	}
	if len(tok) > 3 && strings.HasSuffix(tok, "s") {
		return set[strings.TrimSuffix(tok, "s")]
	}
	return false
}

// parseSections splits one rulebook file into indexed sections. Every
// heading line starts a new section; text above the first heading is
// indexed under the file itself. Sections with no body text are dropped.
func parseSections(stem string, data []byte) []section {
	var (
		sections []section
		current  = section{title: stem, ref: stem}
		body     strings.Builder
	)

	flush := func() {
		content := strings.TrimSpace(body.String())
		body.Reset()
		if content == "" {
			return
		}
		current.content = content
		current.titleTokens = tokenSet(current.title)
		current.bodyTokens = tokenSet(content)
		sections = append(sections, current)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if heading, ok := headingText(line); ok {
			flush()
			current = section{title: heading, ref: sectionRef(stem, heading)}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// headingText extracts the title from a markdown heading line. Only
// "# "-style headings count; a bare "#word" stays body text.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	rest := strings.TrimLeft(trimmed, "#")
	if !strings.HasPrefix(rest, " ") {
		return "", false
	}
	title := strings.TrimSpace(rest)
	if title == "" {
		return "", false
	}
	return title, true
}

// sectionRef derives a stable reference like "rules/4.2" from the file
// stem and the section heading. Headings that open with a section number
// use it verbatim; anything else falls back to a slug of the heading.
func sectionRef(stem, heading string) string {
	if num := leadingNumber(heading); num != "" {
		return stem + "/" + num
	}
	return stem + "/" + slug(heading)
}

// leadingNumber returns a dotted section number at the start of the
// heading ("4.2 Tread Depth" yields "4.2"), or "" when there is none.
func leadingNumber(heading string) string {
	end := 0
	for end < len(heading) {
		c := heading[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && end+1 < len(heading) && heading[end+1] >= '0' && heading[end+1] <= '9' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return ""
	}
	if end < len(heading) && heading[end] != ' ' && heading[end] != '.' {
		return ""
	}
	return strings.TrimSuffix(heading[:end], ".")
}

// slug lowercases the heading and joins its words with hyphens.
func slug(heading string) string {
	return strings.Join(strings.Fields(normalise(heading)), "-")
}

// corpusFile reports whether a file name looks like rulebook content.
func corpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt":
		return true
	default:
		return false
	}
}

// stopwords are query and body tokens too common to carry relevance.
// Single letters cover possessive and contraction leftovers after
// punctuation stripping ("what's" tokenises to "what", "s").
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "can": true, "do": true,
	"does": true, "for": true, "from": true, "how": true, "i": true,
	"if": true, "in": true, "is": true, "it": true, "my": true,
	"of": true, "on": true, "or": true, "s": true, "t": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"what": true, "when": true, "where": true, "which": true,
	"who": true, "why": true, "will": true, "with": true,
	"you": true, "your": true,
}

// tokenSet tokenises text into a membership set, dropping stopwords.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalise(text)) {
		if !stopwords[tok] {
			set[tok] = true
		}
	}
	return set
}

// queryTokens tokenises a query into distinct scoreable terms,
// preserving first-seen order.
func queryTokens(query string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(normalise(query)) {
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// normalise lowercases and replaces punctuation with spaces.
func normalise(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
