package citations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Origin records which pass produced a candidate.
type Origin string

const (
	OriginBareURL  Origin = "bare_url"
	OriginMarkdown Origin = "markdown"
	OriginNumbered Origin = "numbered_list"
	OriginProse    Origin = "prose"
	OriginSupplied Origin = "supplied"
)

// Candidate is an unvalidated citation found in, or supplied with, one
// brief section.
type Candidate struct {
	RawText string `json:"raw_text"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Origin  Origin `json:"origin"`

	offset int // byte offset of the match in the source text
	end    int
}

// RawCitation is a citation as returned by the generation service: either a
// bare URL string or an object with url/title/snippet. It only exists at the
// ingestion boundary; FromRaw turns it into candidates.
type RawCitation struct {
	kind    rawKind
	url     string
	title   string
	snippet string
}

type rawKind int

const (
	rawString rawKind = iota + 1
	rawObject
)

// StringCitation builds a bare-string citation.
func StringCitation(u string) RawCitation {
	return RawCitation{kind: rawString, url: u}
}

// ObjectCitation builds an object citation.
func ObjectCitation(u, title, snippet string) RawCitation {
	return RawCitation{kind: rawObject, url: u, title: title, snippet: snippet}
}

// URL returns the citation URL regardless of shape.
func (c RawCitation) URL() string { return c.url }

// Title returns the title of an object citation, or "".
func (c RawCitation) Title() string { return c.title }

// UnmarshalJSON accepts either "https://..." or {"url":...,"title":...,"snippet":...}.
// Some providers use "link" instead of "url"; both are accepted.
func (c *RawCitation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = RawCitation{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("citation string: %w", err)
		}
		*c = StringCitation(s)
		return nil
	case '{':
		var obj struct {
			URL     string `json:"url"`
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("citation object: %w", err)
		}
		u := obj.URL
		if u == "" {
			u = obj.Link
		}
		*c = ObjectCitation(u, obj.Title, obj.Snippet)
		return nil
	default:
		return fmt.Errorf("citation must be a string or object, got %q", string(data[:1]))
	}
}

// MarshalJSON writes the citation back in its original shape.
func (c RawCitation) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case rawString:
		return json.Marshal(c.url)
	case rawObject:
		return json.Marshal(struct {
			URL     string `json:"url"`
			Title   string `json:"title,omitempty"`
			Snippet string `json:"snippet,omitempty"`
		}{c.url, c.title, c.snippet})
	default:
		return []byte("null"), nil
	}
}

// FromRaw normalizes service-supplied citations into candidates. Entries
// without a usable http(s) URL are dropped; duplicates by normalized URL
// keep the first occurrence and its title.
func FromRaw(raw []RawCitation) []Candidate {
	out := make([]Candidate, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, rc := range raw {
		u := cleanMatchedURL(strings.TrimSpace(rc.url))
		if !usableURL(u) {
			continue
		}
		key, err := NormalizeURL(u)
		if err != nil {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Candidate{
			RawText: rc.url,
			URL:     u,
			Title:   strings.TrimSpace(rc.title),
			Origin:  OriginSupplied,
			offset:  i,
		})
	}
	return out
}
