package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Why Drafts Die &amp; How to Save Them</title><style>body{}</style></head>
<body>
<nav>Home | About | Subscribe</nav>
<header>Site banner</header>
<article>
  <h1>Why drafts die</h1>
  <p>Most writers abandon their drafts in the second week. The reason is rarely talent.</p>
  <!-- tracking pixel -->
  <script>track()</script>
  <ul><li>Write badly on purpose</li><li>Stop editing while drafting</li></ul>
</article>
<footer>Copyright</footer>
</body>
</html>`

func TestExtractHTMLArticle(t *testing.T) {
	doc, err := ExtractHTML(strings.NewReader(articlePage))
	require.NoError(t, err)

	assert.Equal(t, "Why Drafts Die & How to Save Them", doc.Title)
	assert.Equal(t, "Why drafts die\n\n"+
		"Most writers abandon their drafts in the second week. The reason is rarely talent.\n\n"+
		"• Write badly on purpose\n\n"+
		"• Stop editing while drafting", doc.Text)
	assert.NotContains(t, doc.Text, "track()")
	assert.NotContains(t, doc.Text, "Home | About")
	assert.NotContains(t, doc.Text, "Copyright")
}

func TestExtractHTMLFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		expected string
	}{
		{
			name: "content class",
			page: `<html><body><div class="wrapper available-content"><p>` + strings.Repeat("Substack body text. ", 6) + `</p></div></body></html>`,
			expected: strings.TrimSpace(strings.Repeat("Substack body text. ", 6)),
		},
		{
			name: "paragraphs",
			page: `<html><body><div><p>The first paragraph is long enough.</p><p>short</p>
				<p>The second   paragraph is also long.</p></div></body></html>`,
			expected: "The first paragraph is long enough.\n\nThe second paragraph is also long.",
		},
		{
			name:     "main element",
			page:     `<html><body><main><h2>Heading</h2>Loose text</main></body></html>`,
			expected: "Heading\nLoose text",
		},
		{
			name:     "body element",
			page:     `<html><body>Just some body text</body></html>`,
			expected: "Just some body text",
		},
		{
			name:     "short article falls through to body",
			page:     `<html><body><article>Tiny</article></body></html>`,
			expected: "Tiny",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ExtractHTML(strings.NewReader(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, doc.Text)
		})
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw string
		err error
	}{
		{"https://example.substack.com/p/drafts", nil},
		{"http://localhost:8080/a", nil},
		{"", ErrURLRequired},
		{"not a url", ErrInvalidURL},
		{"ftp://example.com/file", ErrUnsupportedScheme},
		{"javascript:alert(1)", ErrInvalidURL},
	}

	for _, tt := range tests {
		_, err := ParseURL(tt.raw)
		if tt.err == nil {
			assert.NoError(t, err, tt.raw)
			continue
		}
		assert.ErrorIs(t, err, tt.err, tt.raw)
	}

	assert.ErrorIs(t, ErrUnsupportedScheme, ErrInvalidURL)
}

func TestFetchURL(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	result, err := NewFetcher(time.Second, nil).FetchURL(context.Background(), server.URL+"/p/drafts")
	require.NoError(t, err)

	assert.Equal(t, UserAgent, userAgent)
	assert.Equal(t, "127.0.0.1", result.Source)
	assert.Equal(t, "Why Drafts Die & How to Save Them", result.Title)
	assert.Contains(t, result.Content, "Most writers abandon their drafts")
	assert.Equal(t, len([]rune(result.Content)), result.CharCount)
}

func TestFetchURLTruncatesLongContent(t *testing.T) {
	body := "<html><body><article><p>" + strings.Repeat("word ", 4000) + "</p></article></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	result, err := NewFetcher(time.Second, nil).FetchURL(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, MaxContentLength, len([]rune(result.Content)))
	assert.Greater(t, result.CharCount, MaxContentLength)
}

func TestFetchURLErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Too short</p></body></html>"))
	}))
	defer empty.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	fetcher := NewFetcher(50*time.Millisecond, nil)

	_, err := fetcher.FetchURL(context.Background(), notFound.URL)
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "failed to fetch URL (404)", err.Error())

	_, err = fetcher.FetchURL(context.Background(), empty.URL)
	assert.ErrorIs(t, err, ErrNotEnoughContent)

	_, err = fetcher.FetchURL(context.Background(), slow.URL)
	assert.ErrorIs(t, err, ErrFetchTimeout)

	_, err = fetcher.FetchURL(context.Background(), "ftp://example.com")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(textPath, []byte("# Draft\n\nHello."), 0o644))
	text, err := ReadFile(textPath)
	require.NoError(t, err)
	assert.Equal(t, "# Draft\n\nHello.", text)

	htmlPath := filepath.Join(dir, "draft.HTML")
	require.NoError(t, os.WriteFile(htmlPath, []byte(articlePage), 0o644))
	text, err = ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Why drafts die"))

	badPDF := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(badPDF, []byte("not a pdf"), 0o644))
	_, err = ReadFile(badPDF)
	assert.ErrorContains(t, err, "open pdf")

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
