package warmlib

// MediaElement describes one playable <video> node reported by a page.
// Pages either post their rendered document for scanning (see Registry)
// or report elements one at a time when UI code inserts them, e.g. a
// gallery lightbox opening.
type MediaElement struct {
	// URL is the element's direct src attribute, if any.
	URL string `json:"url"`
	// Sources holds the URLs of nested <source> children, in document order.
	Sources []string `json:"sources,omitempty"`
	// Visible reports whether the element is within the viewport.
	Visible bool `json:"visible"`
	// InModal reports whether an ancestor is a modal container or is
	// hidden via display:none.
	InModal bool `json:"in_modal"`
	// Playing reports whether the element is currently playing.
	Playing bool `json:"playing"`
	// Index is the element's discovery position on its page, starting at 0.
	Index int `json:"index"`
}

// PlayableSource returns the first usable source URL of the element,
// preferring the direct src attribute over nested <source> children.
// It returns an empty string if the element has no source at all.
func (el *MediaElement) PlayableSource() string {
	if el.URL != "" {
		return el.URL
	}
	if len(el.Sources) > 0 {
		return el.Sources[0]
	}
	return ""
}
