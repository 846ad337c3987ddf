package extract

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxContentLength bounds the extracted text returned to callers
const MaxContentLength = 15000

const (
	minArticleLength   = 100
	minParagraphLength = 20
	minParagraphs      = 2
)

// Elements that never carry article text
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Form:     true,
}

// Elements rendered as line breaks in plain text
var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Br:         true,
	atom.Blockquote: true,
}

// Class fragments used by Substack, Medium and common blog themes
var contentClasses = []string{
	"post-content",
	"article-content",
	"entry-content",
	"body-markup",
	"markup",
	"available-content",
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)
	spaceAroundLF   = regexp.MustCompile(` ?\n ?`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
	anyWhitespace   = regexp.MustCompile(`\s+`)
)

// Document is the readable part of an HTML page
type Document struct {
	Title string
	Text  string
}

// ExtractHTML parses an HTML page and returns its title and article text
func ExtractHTML(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if title := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Title }); title != nil {
		doc.Title = strings.TrimSpace(anyWhitespace.ReplaceAllString(innerText(title), " "))
	}

	prune(root)
	doc.Text = articleText(root)
	return doc, nil
}

func articleText(root *html.Node) string {
	if article := findFirst(root, isElement(atom.Article)); article != nil {
		if text := blockText(article); utf8.RuneCountInString(text) > minArticleLength {
			return text
		}
	}

	if container := findFirst(root, hasContentClass); container != nil {
		if text := blockText(container); utf8.RuneCountInString(text) > minArticleLength {
			return text
		}
	}

	var paragraphs []string
	for _, p := range findAll(root, isElement(atom.P)) {
		text := strings.TrimSpace(anyWhitespace.ReplaceAllString(innerText(p), " "))
		if utf8.RuneCountInString(text) > minParagraphLength {
			paragraphs = append(paragraphs, text)
		}
	}
	if len(paragraphs) >= minParagraphs {
		return strings.Join(paragraphs, "\n\n")
	}

	if main := findFirst(root, isElement(atom.Main)); main != nil {
		return blockText(main)
	}
	if body := findFirst(root, isElement(atom.Body)); body != nil {
		return truncate(blockText(body), MaxContentLength)
	}
	return ""
}

// prune removes non-content elements and comments in place
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && droppedElements[c.DataAtom]) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func hasContentClass(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range contentClasses {
			if strings.Contains(attr.Val, class) {
				return true
			}
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// innerText concatenates the text nodes under n
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// blockText renders n as plain text with block elements on their own lines
// and list items prefixed by a bullet.
func blockText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
			return
		case html.ElementNode:
			if blockElements[n.DataAtom] {
				b.WriteByte('\n')
				if n.DataAtom == atom.Li {
					b.WriteString("• ")
				}
				defer b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return cleanText(b.String())
}

func cleanText(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spaceAroundLF.ReplaceAllString(s, "\n")
	s = extraNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
