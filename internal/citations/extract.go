package citations

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// SourceResolver maps a publisher name found in prose to its canonical URL
// and display name, returning empty strings when the name is unknown.
type SourceResolver interface {
	ResolveSourceName(name string) (canonicalURL, displayName string)
}

var (
	// [title](url), allowing one level of balanced parentheses inside the URL.
	markdownLinkRe = regexp.MustCompile(`\[([^\[\]\n]+)\]\((https?://[^\s()]+(?:\([^\s()]*\)[^\s()]*)*)\)`)

	// "1. Title - https://..." / "[2] Title: https://..." reference list lines.
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*(?:\d{1,3}[.)]|\[\d{1,3}\])[ \t]+([^\n]*?)[ \t]*(https?://[^\s\]\)<>"']+)`)

	// http(s) URLs; stop at whitespace, closing brackets, tag delimiters and quotes.
	bareURLRe = regexp.MustCompile(`https?://[^\s\]\)<>"']+`)

	// "Source: Reuters", "According to the Department of Defense", "Reports from Janes".
	proseRe = regexp.MustCompile(`(?:\b[Ss]ources?[ \t]*:|\b[Aa]ccording[ \t]+to|\b[Rr]eports?[ \t]+from|\b[Rr]eported[ \t]+by)[ \t]+((?:[A-Z][\w&'.-]*|of|the|and|for|on)(?:,?[ \t]+(?:[A-Z][\w&'.-]*|of|the|and|for|on)){0,7})`)
)

// Extractor finds citation candidates in generated brief text. Each citation
// form is an independent pass; all passes feed one dedup step.
type Extractor struct {
	resolver SourceResolver
}

// NewExtractor creates an extractor. resolver may be nil, in which case
// prose citations ("According to X") are not resolved and are dropped.
func NewExtractor(resolver SourceResolver) *Extractor {
	return &Extractor{resolver: resolver}
}

// Extract returns the citation candidates found in content, ordered by first
// occurrence in the text. Candidates are unique by NormalizeURL and the first
// occurrence wins, title included: a later duplicate never supplies a title.
// Malformed URLs are dropped silently. Extract is deterministic.
func (e *Extractor) Extract(content string) []Candidate {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var found []Candidate

	md := markdownPass(content)
	found = append(found, md...)

	// Later URL passes must not see URLs already consumed as markdown links.
	masked := maskSpans(content, md)

	numbered := numberedPass(content, masked)
	found = append(found, numbered...)
	masked = maskSpans(masked, numbered)

	found = append(found, bareURLPass(masked)...)

	if e != nil && e.resolver != nil {
		found = append(found, prosePass(content, e.resolver)...)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].offset < found[j].offset
	})
	return dedupe(found)
}

// Merge appends supplied candidates after extracted ones and dedupes the
// combined list by normalized URL with the same first-occurrence rule.
func Merge(extracted, supplied []Candidate) []Candidate {
	all := make([]Candidate, 0, len(extracted)+len(supplied))
	all = append(all, extracted...)
	all = append(all, supplied...)
	return dedupe(all)
}

func dedupe(in []Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		key, err := NormalizeURL(c.URL)
		if err != nil || key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func markdownPass(text string) []Candidate {
	var out []Candidate
	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(text, -1) {
		u := cleanMatchedURL(text[m[4]:m[5]])
		if !usableURL(u) {
			continue
		}
		out = append(out, Candidate{
			RawText: text[m[0]:m[1]],
			URL:     u,
			Title:   cleanTitle(text[m[2]:m[3]]),
			Origin:  OriginMarkdown,
			offset:  m[0],
			end:     m[1],
		})
	}
	return out
}

// numberedPass matches list lines in masked, which has earlier link spans
// blanked at the same offsets as content. Titles come from content; a title
// that ran across a blanked link is not a title.
func numberedPass(content, masked string) []Candidate {
	var out []Candidate
	for _, m := range numberedRe.FindAllStringSubmatchIndex(masked, -1) {
		u := cleanMatchedURL(masked[m[4]:m[5]])
		if !usableURL(u) {
			continue
		}
		title := ""
		if content[m[2]:m[3]] == masked[m[2]:m[3]] {
			title = strings.Join(strings.Fields(content[m[2]:m[3]]), " ")
			title = strings.TrimRight(title, "-–—:|( \t")
		}
		out = append(out, Candidate{
			RawText: strings.TrimSpace(masked[m[0]:m[1]]),
			URL:     u,
			Title:   cleanTitle(title),
			Origin:  OriginNumbered,
			offset:  m[0],
			end:     m[1],
		})
	}
	return out
}

func bareURLPass(text string) []Candidate {
	var out []Candidate
	for _, m := range bareURLRe.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		u := cleanMatchedURL(raw)
		if !usableURL(u) {
			continue
		}
		out = append(out, Candidate{
			RawText: raw,
			URL:     u,
			Origin:  OriginBareURL,
			offset:  m[0],
			end:     m[1],
		})
	}
	return out
}

func prosePass(text string, resolver SourceResolver) []Candidate {
	var out []Candidate
	for _, m := range proseRe.FindAllStringSubmatchIndex(text, -1) {
		name := trimProseName(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		for _, src := range resolveSourceList(name, resolver) {
			out = append(out, Candidate{
				RawText: text[m[0]:m[1]],
				URL:     src.url,
				Title:   src.title,
				Origin:  OriginProse,
				offset:  m[0],
				end:     m[1],
			})
		}
	}
	return out
}

type resolvedSource struct {
	url   string
	title string
}

// resolveSourceList resolves a name list such as "Reuters, Bloomberg and the
// Financial Times". Adjacent parts are rejoined with "and" until they resolve,
// shortest first, so "Food and Drug Administration" stays one publisher.
// Titles are registry display names, never the prose text.
func resolveSourceList(name string, resolver SourceResolver) []resolvedSource {
	parts := splitSourceList(name)
	var out []resolvedSource
	for i := 0; i < len(parts); i++ {
		for j := i; j < len(parts); j++ {
			u, title := resolver.ResolveSourceName(strings.Join(parts[i:j+1], " and "))
			if u == "" || !usableURL(u) {
				continue
			}
			if title == "" {
				title = strings.Join(parts[i:j+1], " and ")
			}
			out = append(out, resolvedSource{url: u, title: title})
			i = j
			break
		}
	}
	return out
}

// splitSourceList splits name on commas and on standalone "and" or "&".
func splitSourceList(name string) []string {
	var out []string
	for _, chunk := range strings.Split(name, ",") {
		var words []string
		flush := func() {
			if part := trimProseName(strings.Join(words, " ")); part != "" {
				out = append(out, part)
			}
			words = words[:0]
		}
		for _, w := range strings.Fields(chunk) {
			if w == "and" || w == "&" {
				flush()
				continue
			}
			words = append(words, w)
		}
		flush()
	}
	return out
}

// maskSpans blanks the candidate spans with spaces, preserving offsets.
func maskSpans(text string, cands []Candidate) string {
	if len(cands) == 0 {
		return text
	}
	b := []byte(text)
	for _, c := range cands {
		end := c.end
		if end > len(b) {
			end = len(b)
		}
		for i := c.offset; i < end; i++ {
			if b[i] != '\n' {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

var connectorWords = map[string]bool{"of": true, "the": true, "and": true, "for": true, "on": true}

// trimProseName cuts the name at the end of its sentence and drops trailing
// punctuation and dangling connector words.
func trimProseName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if strings.HasSuffix(w, ".") && !isInitialism(w) {
			words = words[:i+1]
			break
		}
	}
	for len(words) > 0 {
		last := strings.TrimRight(words[len(words)-1], ".,;:'-")
		if last == "" || connectorWords[last] {
			words = words[:len(words)-1]
			continue
		}
		words[len(words)-1] = last
		break
	}
	for len(words) > 0 && connectorWords[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// isInitialism reports whether w looks like "U.S." or "E.U.".
func isInitialism(w string) bool {
	letters := 0
	for _, r := range w {
		switch {
		case r == '.':
		case unicode.IsUpper(r):
			letters++
		default:
			return false
		}
	}
	return letters > 0 && strings.Count(w, ".") >= letters
}

// cleanTitle trims markdown emphasis and quotes; bare reference numbers
// such as "1" or "[2]" are not titles.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_\"'` ")
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return ""
	}
	return s
}
