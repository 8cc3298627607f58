package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLookup(t *testing.T) {
	r := Default()

	tests := []struct {
		name     string
		input    string
		domain   string
		display  string
		category Category
	}{
		{
			name:     "registered domain with www",
			input:    "https://www.fda.gov/drugs/novel-drug-approvals-fda/novel-drug-approvals-2025",
			domain:   "fda.gov",
			display:  "U.S. Food and Drug Administration",
			category: CategoryGovernment,
		},
		{
			name:     "uppercase host and port",
			input:    "HTTPS://WWW.REUTERS.COM:443/world/",
			domain:   "reuters.com",
			display:  "Reuters",
			category: CategoryNews,
		},
		{
			name:     "subdomain resolves to parent",
			input:    "https://markets.ft.com/data",
			domain:   "ft.com",
			display:  "Financial Times",
			category: CategoryFinancial,
		},
		{
			name:     "unknown domain",
			input:    "https://example.org/article",
			domain:   "example.org",
			display:  ExternalSourceName,
			category: CategoryNews,
		},
		{
			name:     "lookalike domain is not registered",
			input:    "https://notreuters.com/story",
			domain:   "notreuters.com",
			display:  ExternalSourceName,
			category: CategoryNews,
		},
		{
			name:     "malformed URL",
			input:    "http://[::1",
			domain:   "",
			display:  ExternalSourceName,
			category: CategoryNews,
		},
		{
			name:     "empty",
			input:    "",
			domain:   "",
			display:  ExternalSourceName,
			category: CategoryNews,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Lookup(tt.input)
			assert.Equal(t, tt.domain, d.Domain)
			assert.Equal(t, tt.display, d.DisplayName)
			assert.Equal(t, tt.category, d.Category)
		})
	}
}

func TestLookupNilRegistry(t *testing.T) {
	var r *Registry
	d := r.Lookup("https://www.reuters.com/x")
	assert.Equal(t, ExternalSourceName, d.DisplayName)
	assert.Equal(t, CategoryNews, d.Category)
}

func TestDefaultRegistryCoversCategories(t *testing.T) {
	r := Default()
	assert.GreaterOrEqual(t, r.Len(), 25)

	seen := map[Category]bool{}
	for _, e := range r.Entries() {
		seen[e.Category] = true
	}
	for _, c := range []Category{CategoryNews, CategoryGovernment, CategoryResearch, CategoryIntelligence, CategoryFinancial, CategoryIndustry} {
		assert.True(t, seen[c], "missing category %s", c)
	}
}

func TestGuessURLFromSourceName(t *testing.T) {
	r := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "Reuters", "https://www.reuters.com/world/"},
		{"case insensitive", "the PENTAGON", "https://www.defense.gov/News/Releases/"},
		{"fragment inside longer name", "the U.S. Food and Drug Administration", "https://www.fda.gov/news-events/fda-newsroom/press-announcements"},
		{"specific alias wins", "Defense News", "https://www.defensenews.com/pentagon/"},
		{"word boundary", "Senator Smith", ""},
		{"single-word alias inside a person's name", "Senator Rand Paul", ""},
		{"single-word alias followed by a surname", "Rand Paul", ""},
		{"single-word alias with trailing lowercase words", "the Pentagon on Tuesday", "https://www.defense.gov/News/Releases/"},
		{"acronym alone", "RAND", "https://www.rand.org/pubs.html"},
		{"multi-word alias", "RAND Corporation", "https://www.rand.org/pubs.html"},
		{"unknown", "Some Blog", ""},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.GuessURLFromSourceName(tt.in))
		})
	}
}

func TestResolveSourceNameReturnsDisplayName(t *testing.T) {
	r := Default()

	u, name := r.ResolveSourceName("the Department of Defense")
	assert.Equal(t, "https://www.defense.gov/News/Releases/", u)
	assert.Equal(t, "U.S. Department of Defense", name)

	u, name = r.ResolveSourceName("Reuters")
	assert.Equal(t, "https://www.reuters.com/world/", u)
	assert.Equal(t, "Reuters", name)

	u, name = r.ResolveSourceName("Some Blog")
	assert.Empty(t, u)
	assert.Empty(t, name)

	var nilRegistry *Registry
	u, _ = nilRegistry.ResolveSourceName("Reuters")
	assert.Empty(t, u)
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	_, err := NewRegistry([]Entry{{Domain: "", DisplayName: "x", Category: CategoryNews}})
	assert.Error(t, err)

	_, err = NewRegistry([]Entry{{Domain: "a.com", DisplayName: "A", Category: "blog"}})
	assert.Error(t, err)

	_, err = NewRegistry([]Entry{
		{Domain: "a.com", DisplayName: "A", Category: CategoryNews},
		{Domain: "www.A.com", DisplayName: "A again", Category: CategoryNews},
	})
	assert.Error(t, err)
}

func TestLoadRegistry(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()

	t.Run("empty path uses defaults", func(t *testing.T) {
		r, err := LoadRegistry("", logger)
		require.NoError(t, err)
		assert.Equal(t, len(defaultEntries), r.Len())
	})

	t.Run("extend and override", func(t *testing.T) {
		path := filepath.Join(dir, "extend.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - domain: reuters.com
    name: Reuters Wire
    category: news
  - domain: www.navalnews.com
    name: Naval News
    category: industry
    aliases: ["naval news"]
    canonical_url: https://www.navalnews.com/category/naval-news/
`), 0o644))

		r, err := LoadRegistry(path, logger)
		require.NoError(t, err)
		assert.Equal(t, len(defaultEntries)+1, r.Len())
		assert.Equal(t, "Reuters Wire", r.Lookup("https://reuters.com/a").DisplayName)
		assert.Equal(t, CategoryIndustry, r.Lookup("https://www.navalnews.com/x").Category)
		assert.Equal(t, "https://www.navalnews.com/category/naval-news/", r.GuessURLFromSourceName("Naval News"))
	})

	t.Run("replace", func(t *testing.T) {
		path := filepath.Join(dir, "replace.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
replace: true
sources:
  - domain: example.com
    name: Example
    category: research
`), 0o644))

		r, err := LoadRegistry(path, logger)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Len())
		assert.Equal(t, ExternalSourceName, r.Lookup("https://reuters.com/a").DisplayName)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegistry(filepath.Join(dir, "nope.yaml"), logger)
		assert.Error(t, err)
	})

	t.Run("invalid category", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sources:\n  - domain: x.com\n    name: X\n    category: gossip\n"), 0o644))
		_, err := LoadRegistry(path, logger)
		assert.Error(t, err)
	})
}
