// Package richtext scans and rewrites the inline-image markers embedded in
// lesson and quiz HTML.
package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerAttr carries the local upload-queue id of an image that has not been
// uploaded yet.
const MarkerAttr = "data-upload-id"

// Parse parses an HTML fragment in a <body> context.
func Parse(src string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return nodes, nil
}

// Render serializes a fragment back to a string.
func Render(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// walk visits n and every descendant depth-first.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func isMarkedImage(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode || n.DataAtom != atom.Img {
		return "", false
	}
	id, ok := attr(n, MarkerAttr)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// MarkerIDs returns the marker ids referenced by src in order of first
// appearance.
func MarkerIDs(src string) ([]string, error) {
	if !strings.Contains(strings.ToLower(src), MarkerAttr) {
		return nil, nil
	}
	nodes, err := Parse(src)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, n := range nodes {
		walk(n, func(node *html.Node) {
			id, ok := isMarkedImage(node)
			if !ok {
				return
			}
			if _, dup := seen[id]; dup {
				return
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		})
	}
	return ids, nil
}

// Rewrite points every marked image whose id is in urls at its final URL and
// strips the marker. Fields without a matching marker are returned unchanged.
func Rewrite(src string, urls map[string]string) (string, []string, error) {
	if len(urls) == 0 || !strings.Contains(strings.ToLower(src), MarkerAttr) {
		return src, nil, nil
	}
	nodes, err := Parse(src)
	if err != nil {
		return "", nil, err
	}
	var rewritten []string
	for _, n := range nodes {
		walk(n, func(node *html.Node) {
			id, ok := isMarkedImage(node)
			if !ok {
				return
			}
			url, ok := urls[id]
			if !ok {
				return
			}
			setAttr(node, "src", url)
			removeAttr(node, MarkerAttr)
			rewritten = append(rewritten, id)
		})
	}
	if len(rewritten) == 0 {
		return src, nil, nil
	}
	out, err := Render(nodes)
	if err != nil {
		return "", nil, err
	}
	return out, rewritten, nil
}

// PendingImage renders the tag for an image that is still queued locally.
func PendingImage(markerID, previewSrc, alt string) string {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "src", Val: previewSrc},
			{Key: "alt", Val: alt},
			{Key: MarkerAttr, Val: markerID},
		},
	}
	out, err := Render([]*html.Node{n})
	if err != nil {
		return ""
	}
	return out
}

// RemoveImage drops every image carrying markerID from src.
func RemoveImage(src, markerID string) (string, error) {
	if !strings.Contains(src, markerID) {
		return src, nil
	}
	nodes, err := Parse(src)
	if err != nil {
		return "", err
	}
	var doomed []*html.Node
	kept := nodes[:0]
	for _, n := range nodes {
		if id, ok := isMarkedImage(n); ok && id == markerID {
			continue
		}
		kept = append(kept, n)
		walk(n, func(node *html.Node) {
			if id, ok := isMarkedImage(node); ok && id == markerID {
				doomed = append(doomed, node)
			}
		})
	}
	for _, d := range doomed {
		if d.Parent != nil {
			d.Parent.RemoveChild(d)
		}
	}
	return Render(kept)
}

// PlainText strips tags for one-line previews.
func PlainText(src string) string {
	nodes, err := Parse(src)
	if err != nil {
		return src
	}
	var b strings.Builder
	for _, n := range nodes {
		walk(n, func(node *html.Node) {
			if node.Type == html.TextNode {
				b.WriteString(node.Data)
			}
			if node.Type == html.ElementNode && node.DataAtom == atom.Img {
				b.WriteString(" [image] ")
			}
		})
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
