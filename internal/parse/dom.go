package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type matcher func(*html.Node) bool

func isElement(n *html.Node, tags ...atom.Atom) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if n.DataAtom == tag {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// attrMatches reports whether the attribute value, or any of its
// space-separated tokens, matches pattern.
func attrMatches(n *html.Node, key string, pattern *regexp.Regexp) bool {
	value, ok := attr(n, key)
	if !ok {
		return false
	}
	if pattern.MatchString(value) {
		return true
	}
	for _, token := range strings.Fields(value) {
		if pattern.MatchString(token) {
			return true
		}
	}
	return false
}

func tagWith(tags []atom.Atom, extra matcher) matcher {
	return func(n *html.Node) bool {
		if !isElement(n, tags...) {
			return false
		}
		return extra == nil || extra(n)
	}
}

func hasAttr(key string) matcher {
	return func(n *html.Node) bool {
		_, ok := attr(n, key)
		return ok
	}
}

func classMatches(pattern *regexp.Regexp) matcher {
	return func(n *html.Node) bool {
		return attrMatches(n, "class", pattern)
	}
}

func attrPattern(key string, pattern *regexp.Regexp) matcher {
	return func(n *html.Node) bool {
		return attrMatches(n, key, pattern)
	}
}

func withHref(n *html.Node) bool {
	href, ok := attr(n, "href")
	return ok && strings.TrimSpace(href) != ""
}

// findAll returns descendants of root (excluding root) matching m in document
// order, stopping after limit matches when limit is positive.
func findAll(root *html.Node, m matcher, limit int) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
				if limit > 0 && len(out) >= limit {
					return false
				}
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	if root != nil {
		walk(root)
	}
	return out
}

func findFirst(root *html.Node, m matcher) *html.Node {
	found := findAll(root, m, 1)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// textContent concatenates descendant text nodes separated by spaces, with
// script and style content excluded.
func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if isElement(n, atom.Script, atom.Style, atom.Noscript) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
