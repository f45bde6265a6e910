// Package richtext converts rendered source markup into the destination's
// structured rich-text tree.
//
// The conversion is lossy and best-effort. Only paragraphs and unordered
// lists that are direct children of the document body survive; headings,
// images, tables, blockquotes, ordered lists, inline formatting and loose
// top-level text are discarded. Callers that need plain text (excerpts,
// captions, comment bodies) should use StripTags instead.
package richtext

import (
	"regexp"
	"strings"

	"github.com/juju/loggo"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lherron/pressmigrate/internal/domain"
)

var logger = loggo.GetLogger("pressmigrate.richtext")

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// ToDocument converts markup into a Document. Empty or whitespace-only input
// yields an empty document.
func ToDocument(markup string) domain.Document {
	doc := domain.Document{Children: []domain.Block{}}
	if strings.TrimSpace(markup) == "" {
		return doc
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		logger.Warningf("unparseable markup, producing empty document: %v", err)
		return doc
	}

	body := findBody(root)
	if body == nil {
		return doc
	}

	for node := body.FirstChild; node != nil; node = node.NextSibling {
		if node.Type != html.ElementNode {
			continue
		}
		switch node.DataAtom {
		case atom.P:
			if text := textContent(node); text != "" {
				doc.Children = append(doc.Children, paragraph(text))
			}
		case atom.Ul:
			if list, ok := bulletedList(node); ok {
				doc.Children = append(doc.Children, list)
			}
		default:
			logger.Tracef("discarding <%s> block", node.Data)
		}
	}

	return doc
}

// StripTags removes markup from s, decodes entities and trims whitespace
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

func paragraph(text string) domain.Block {
	return domain.Block{
		Type:     domain.BlockParagraph,
		Children: []domain.Block{domain.TextRun(text)},
	}
}

// bulletedList collects every non-empty <li> below ul, including items of
// nested lists, in document order.
func bulletedList(ul *html.Node) (domain.Block, bool) {
	var items []domain.Block
	walk(ul, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Li {
			return
		}
		text := textContent(n)
		if text == "" {
			return
		}
		items = append(items, domain.Block{
			Type: domain.BlockListItem,
			Children: []domain.Block{{
				Type:     domain.BlockListItemChild,
				Children: []domain.Block{domain.TextRun(text)},
			}},
		})
	})

	if len(items) == 0 {
		return domain.Block{}, false
	}
	return domain.Block{Type: domain.BlockBulletedList, Children: items}, true
}

func findBody(n *html.Node) *html.Node {
	var body *html.Node
	walk(n, func(node *html.Node) {
		if body == nil && node.Type == html.ElementNode && node.DataAtom == atom.Body {
			body = node
		}
	})
	return body
}

// textContent concatenates all descendant text and trims the result
func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
	})
	return strings.TrimSpace(b.String())
}

// walk visits n's descendants depth-first in document order
func walk(n *html.Node, visit func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
		walk(c, visit)
	}
}
