package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipePage = `<!DOCTYPE html>
<html><head><title>Tomatsuppe</title></head>
<body>
<nav><a href="/">Forside</a></nav>
<article>
<h1>Tomatsuppe</h1>
<p>En klassisk tomatsuppe til 4 personer, som er nem at lave en hverdagsaften.</p>
<h2>Ingredienser</h2>
<ul>
<li>1 dåse hakkede tomater</li>
<li>1 løg</li>
<li>2 fed hvidløg</li>
<li>5 dl grøntsagsbouillon</li>
</ul>
<h2>Fremgangsmåde</h2>
<p>Hak løg og hvidløg og svits dem i en gryde med lidt olie. Tilsæt tomater og bouillon, og lad suppen simre i 20 minutter. Blend suppen og smag til med salt og peber.</p>
</article>
<footer>Kommentarer</footer>
</body></html>`

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(recipePage))
	}))
	defer srv.Close()

	page, err := NewFetcher(2*time.Second, 1<<20).Extract(context.Background(), srv.URL+"/opskrift?antal=4")
	require.NoError(t, err)
	assert.Contains(t, page.Text, "simre i 20 minutter")
	assert.Equal(t, srv.URL+"/opskrift?antal=4", page.URL)
}

func TestExtractStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(2*time.Second, 1<<20).Extract(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestExtractTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("a", 2048) + "</p></body></html>"))
	}))
	defer srv.Close()

	_, err := NewFetcher(2*time.Second, 1024).Extract(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}
