package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts metadata, anchor links, and text from HTML content.
//
// Design decision: we use golang.org/x/net/html rather than regex
// because it correctly handles the malformed markup common on the web
// and degrades gracefully; a page that fails to parse yields an empty
// result, never an aborted crawl.
type Parser struct {
	// baseURL is the URL the page was fetched from, used to resolve
	// relative links.
	baseURL *url.URL
}

// ParseResult contains everything extracted from one HTML document in
// a single pass.
type ParseResult struct {
	// Title is the text of the first <title> element, trimmed.
	Title string

	// Description is the content of meta[name=description], or
	// meta[property=og:description] when the former is absent.
	Description string

	// Links contains the resolved absolute URLs of all anchor href
	// attributes, in document order. Not yet normalized or
	// scope-filtered; duplicates are possible.
	Links []string

	// Text is the concatenated content of all text nodes, used for
	// search term counting.
	Text string
}

// NewParser creates a parser with the given base URL for resolving
// relative references.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse walks the HTML document and extracts title, description,
// links, and text content.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]string, 0)}

	var text strings.Builder
	var ogDescription string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}

			case "a":
				if href := getAttr(n, "href"); href != "" {
					if resolved := p.resolveURL(href); resolved != "" {
						result.Links = append(result.Links, resolved)
					}
				}

			case "meta":
				content := strings.TrimSpace(getAttr(n, "content"))
				if content == "" {
					break
				}
				if getAttr(n, "name") == "description" && result.Description == "" {
					result.Description = content
				}
				if getAttr(n, "property") == "og:description" && ogDescription == "" {
					ogDescription = content
				}
			}

		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	if result.Description == "" {
		result.Description = ogDescription
	}
	result.Text = text.String()

	return result, nil
}

// resolveURL resolves an href against the page's own URL. Non-HTTP
// pseudo-schemes and bare fragments resolve to nothing.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
