package sources

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category classifies a publisher.
type Category string

const (
	CategoryNews         Category = "news"
	CategoryGovernment   Category = "government"
	CategoryResearch     Category = "research"
	CategoryIntelligence Category = "intelligence"
	CategoryFinancial    Category = "financial"
	CategoryIndustry     Category = "industry"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNews, CategoryGovernment, CategoryResearch,
		CategoryIntelligence, CategoryFinancial, CategoryIndustry:
		return true
	}
	return false
}

// ExternalSourceName is the display name used for unregistered domains.
const ExternalSourceName = "External Source"

// Descriptor identifies the publisher behind a URL.
type Descriptor struct {
	Domain      string   `json:"domain"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
}

// Entry is one curated publisher in the registry table.
type Entry struct {
	Domain       string   `yaml:"domain"`
	DisplayName  string   `yaml:"name"`
	Category     Category `yaml:"category"`
	Aliases      []string `yaml:"aliases"`       // lowercase name fragments for prose citations
	CanonicalURL string   `yaml:"canonical_url"` // returned by ResolveSourceName
}

// Registry maps publisher domains to descriptors. It is immutable after
// construction and safe for concurrent use without locking.
type Registry struct {
	entries  []Entry
	byDomain map[string]int
}

// NewRegistry builds a registry from entries. Domains are normalized and
// duplicate domains are rejected.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries:  make([]Entry, 0, len(entries)),
		byDomain: make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		domain := normalizeHost(e.Domain)
		if domain == "" {
			return nil, fmt.Errorf("source entry %d: empty domain", i)
		}
		if strings.TrimSpace(e.DisplayName) == "" {
			return nil, fmt.Errorf("source entry %q: empty name", domain)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("source entry %q: unknown category %q", domain, e.Category)
		}
		if _, dup := r.byDomain[domain]; dup {
			return nil, fmt.Errorf("source entry %q: duplicate domain", domain)
		}

		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				aliases = append(aliases, a)
			}
		}
		r.byDomain[domain] = len(r.entries)
		r.entries = append(r.entries, Entry{
			Domain:       domain,
			DisplayName:  e.DisplayName,
			Category:     e.Category,
			Aliases:      aliases,
			CanonicalURL: strings.TrimSpace(e.CanonicalURL),
		})
	}
	return r, nil
}

// Len returns the number of registered publishers.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the registry table.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup classifies rawURL by its host. Subdomains of a registered domain
// resolve to that domain's descriptor. Unknown or malformed URLs yield the
// generic External Source descriptor; Lookup never fails.
func (r *Registry) Lookup(rawURL string) Descriptor {
	host := hostOf(rawURL)
	if r != nil && host != "" {
		// Walk up the labels: news.bbc.co.uk -> bbc.co.uk -> co.uk
		for h := host; h != ""; {
			if idx, ok := r.byDomain[h]; ok {
				e := r.entries[idx]
				return Descriptor{Domain: e.Domain, DisplayName: e.DisplayName, Category: e.Category}
			}
			dot := strings.IndexByte(h, '.')
			if dot < 0 {
				break
			}
			h = h[dot+1:]
		}
	}
	return Descriptor{Domain: host, DisplayName: ExternalSourceName, Category: CategoryNews}
}

// ResolveSourceName maps a publisher name taken from prose such as
// "According to Reuters" to that publisher's canonical URL and display name,
// checking aliases in table order. A multi-word alias matches anywhere in the
// name on word boundaries. A single-word alias must open the name (after an
// optional "the") and must not be followed by another capitalized word, so
// "rand" matches "RAND" but not "Senator Rand Paul" or "Rand Paul". It
// returns empty strings when nothing matches.
func (r *Registry) ResolveSourceName(name string) (canonicalURL, displayName string) {
	if r == nil {
		return "", ""
	}
	words := strings.Fields(name)
	if len(words) > 0 && strings.EqualFold(words[0], "the") {
		words = words[1:]
	}
	if len(words) == 0 {
		return "", ""
	}
	lower := strings.ToLower(strings.Join(words, " "))
	head := strings.ToLower(strings.TrimRight(words[0], ".,;:"))
	standalone := len(words) == 1 || !startsUpper(words[1])

	for _, e := range r.entries {
		if e.CanonicalURL == "" {
			continue
		}
		for _, alias := range e.Aliases {
			if strings.Contains(alias, " ") {
				if containsWord(lower, alias) {
					return e.CanonicalURL, e.DisplayName
				}
				continue
			}
			if standalone && head == alias {
				return e.CanonicalURL, e.DisplayName
			}
		}
	}
	return "", ""
}

// GuessURLFromSourceName returns only the canonical URL from ResolveSourceName.
func (r *Registry) GuessURLFromSourceName(name string) string {
	u, _ := r.ResolveSourceName(name)
	return u
}

func startsUpper(w string) bool {
	c, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(c)
}

// containsWord reports whether needle occurs in s bounded by non-alphanumerics.
func containsWord(s, needle string) bool {
	for from := 0; from <= len(s)-len(needle); {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}

func hostOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Host)
}

// normalizeHost lowercases, drops any port and a leading "www.".
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
