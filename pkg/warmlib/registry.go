package warmlib

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Registry resolves candidate video URLs from page documents, from the
// site-wide catalog and from elements reported one at a time. All
// discovered URLs are deduplicated through the shared queue.
type Registry struct {
	q *Queue
}

// NewRegistry returns a registry feeding the given queue.
func NewRegistry(q *Queue) *Registry {
	return &Registry{q: q}
}

// Discover parses an HTML document and yields one new entry per unique
// playable <video> URL. Elements under a modal container or a
// display:none ancestor are skipped; those videos only enter the queue
// through an explicit modal-open request, so hidden duplicate UI
// instances are never prewarmed prematurely.
//
// The page script that posts its document stamps two attributes the
// static markup does not carry: data-visible on elements inside the
// viewport and data-playing on the element currently playing.
//
// Running Discover again on an unchanged document yields no new
// entries; known URLs only have their bound element refreshed.
func (r *Registry) Discover(doc io.Reader) ([]*Entry, error) {
	root, err := html.Parse(doc)
	if err != nil {
		return nil, err
	}
	var added []*Entry
	index := 0
	var walk func(n *html.Node, hidden bool)
	walk = func(n *html.Node, hidden bool) {
		if n.Type == html.ElementNode {
			if isModalOrHidden(n) {
				hidden = true
			}
			if n.Data == "video" && !hidden {
				el := elementFromNode(n, index)
				index++
				if src := el.PlayableSource(); src != "" {
					if e, isNew := r.q.Upsert(src, OriginPageDiscovered, el); isNew {
						added = append(added, e)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, hidden)
		}
	}
	walk(root, false)
	return added, nil
}

// RegisterGlobal adds the site-wide promotional catalog, yielding
// entries for any URL not already known.
func (r *Registry) RegisterGlobal(urls []string) []*Entry {
	var added []*Entry
	for _, u := range urls {
		if u == "" {
			continue
		}
		if e, isNew := r.q.Upsert(u, OriginGlobalConfig, nil); isNew {
			added = append(added, e)
		}
	}
	return added
}

// AddElement registers a single dynamically-inserted element, the
// replacement for ambient DOM watching. Modal-hidden elements are
// ignored here; they arrive via the modal-open report instead. The
// returned entry is nil when the element was skipped.
func (r *Registry) AddElement(el MediaElement) (*Entry, error) {
	if el.InModal {
		return nil, nil
	}
	src := el.PlayableSource()
	if src == "" {
		return nil, ErrNoPlayableSource
	}
	e, _ := r.q.Upsert(src, OriginPageDiscovered, &el)
	return e, nil
}

// elementFromNode builds the MediaElement projection of a <video> node.
func elementFromNode(n *html.Node, index int) *MediaElement {
	el := &MediaElement{Index: index}
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			el.URL = a.Val
		case "data-visible":
			el.Visible = a.Val != "false"
		case "data-playing":
			el.Playing = a.Val != "false"
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "source" {
			continue
		}
		for _, a := range c.Attr {
			if a.Key == "src" && a.Val != "" {
				el.Sources = append(el.Sources, a.Val)
			}
		}
	}
	return el
}

// isModalOrHidden reports whether the node is a modal container or is
// hidden outright.
func isModalOrHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			for _, cls := range strings.Fields(a.Val) {
				if strings.Contains(strings.ToLower(cls), "modal") {
					return true
				}
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") {
				return true
			}
		}
	}
	return false
}
