package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Article is one <article> block lifted from a listing page.
type Article struct {
	Title    string
	URL      string
	ImageURL string
	Summary  string
}

// ParseArticles walks the document and extracts every <article> that has a
// title and a link. Relative links and images resolve against base.
func ParseArticles(r io.Reader, base *url.URL) ([]Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var out []Article
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Article {
			if article, ok := extract(n, base); ok {
				out = append(out, article)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func extract(n *html.Node, base *url.URL) (Article, bool) {
	var article Article
	if heading := find(n, func(n *html.Node) bool {
		return n.DataAtom == atom.H1 || n.DataAtom == atom.H2 || n.DataAtom == atom.H3
	}); heading != nil {
		article.Title = text(heading)
	}
	if link := find(n, func(n *html.Node) bool { return n.DataAtom == atom.A && attr(n, "href") != "" }); link != nil {
		article.URL = resolve(base, attr(link, "href"))
	}
	if img := find(n, func(n *html.Node) bool { return n.DataAtom == atom.Img && attr(n, "src") != "" }); img != nil {
		article.ImageURL = resolve(base, attr(img, "src"))
	}
	if p := find(n, func(n *html.Node) bool { return n.DataAtom == atom.P }); p != nil {
		article.Summary = text(p)
	}
	return article, article.Title != "" && article.URL != ""
}

// find returns the first element below n, in document order, matching fn.
func find(n *html.Node, fn func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && fn(c) {
			return c
		}
		if found := find(c, fn); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func resolve(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return parsed.String()
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
