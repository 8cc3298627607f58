package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleBody = `<html><head><title>Fleet expansion announced</title></head>
<body><article><p>The navy announced a fleet expansion programme covering twelve new frigates over the next decade.</p></article></body></html>`

func newPublisher(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/news/fleet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleBody)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAcceptsLiveArticle(t *testing.T) {
	srv := newPublisher(t)
	stdin := strings.NewReader("Shipbuilding accelerated (" + srv.URL + "/news/fleet).")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-sector", "defense", "-section", "outlook"}, stdin, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var out output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "outlook", out.SectionID)
	assert.Equal(t, "accepted", string(out.Outcome))
	require.Len(t, out.References, 1)
	assert.Equal(t, srv.URL+"/news/fleet", out.References[0].URL)
	assert.Equal(t, "Fleet expansion announced", out.References[0].Title)
}

func TestRunNoWorkingReferences(t *testing.T) {
	srv := newPublisher(t)
	path := filepath.Join(t.TempDir(), "brief.md")
	require.NoError(t, os.WriteFile(path, []byte("See "+srv.URL+"/news/missing for details."), 0o600))
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-file", path}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitNoWorkingReferences, code)

	var out output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "no_working_references", string(out.Outcome))
	assert.Empty(t, out.References)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, "not_found", out.Rejections[0].Reason)
}

func TestRunFallbackDefaults(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-policy", "fallback", "-sector", "pharma"}, strings.NewReader("No links."), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var out output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "sector_defaults", string(out.Outcome))
	assert.Len(t, out.References, 4)
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-policy", "lenient"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-bogus"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitError, run(context.Background(), []string{"-file", filepath.Join(t.TempDir(), "none.md")}, strings.NewReader(""), &stdout, &stderr))
}
