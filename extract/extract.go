// Package extract resolves item handles into video info by parsing the
// item's HTML fragment with a small CSS-selector subset.
//
// The session engine only consumes the Extractor contract; this package is
// the reference implementation for hosts that can hand over an item's
// markup. Supported selectors:
//   - tag: "a", "div"
//   - .class: ".badge"
//   - #id: "#video-title"
//   - tag.class, tag#id
//   - tag[attr], tag[attr=val]
//   - combinations separated by space (descendant combinator)
//
// Extraction fails closed: an item without resolvable title and channel is
// reported as not extractable, never as an error.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/vidlens/category"
	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// Selectors names where the video fields live inside an item fragment.
// Each field tries its selectors in order and keeps the first non-empty
// text.
type Selectors struct {
	Title       []string `yaml:"title"`
	Channel     []string `yaml:"channel"`
	Description []string `yaml:"description"`
	// MembersBadge selectors mark membership-gated items.
	MembersBadge []string `yaml:"members_badge"`
	// MembersClassHint additionally flags any element whose class list
	// contains this substring. Platforms rename badge classes often; the
	// substring probe survives that.
	MembersClassHint string `yaml:"members_class_hint"`
}

// DefaultSelectors matches YouTube's item renderer markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:            []string{"#video-title"},
		Channel:          []string{"#channel-name a", ".ytd-channel-name a"},
		Description:      []string{"#description-text", "#description"},
		MembersBadge:     []string{".badge-style-type-members-only"},
		MembersClassHint: "member-only",
	}
}

// FragmentSource hands over an item's HTML fragment, or false when the
// handle no longer resolves in the host document.
type FragmentSource interface {
	Fragment(ctx context.Context, ref change.NodeRef) (string, bool)
}

// Extractor implements the session extractor contract over a fragment
// source.
type Extractor struct {
	src    FragmentSource
	sel    Selectors
	logger *slog.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithSelectors overrides the default YouTube selectors.
func WithSelectors(sel Selectors) Option {
	return func(e *Extractor) { e.sel = sel }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor over the fragment source.
func New(src FragmentSource, opts ...Option) *Extractor {
	e := &Extractor{
		src:    src,
		sel:    DefaultSelectors(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract resolves ref through the fragment source and parses it.
func (e *Extractor) Extract(ctx context.Context, ref change.NodeRef) (category.VideoInfo, bool) {
	frag, ok := e.src.Fragment(ctx, ref)
	if !ok {
		return category.VideoInfo{}, false
	}

	v, ok := Parse(frag, e.sel)
	if !ok {
		e.logger.Debug("extract: item not extractable", "ref", ref)
	}
	return v, ok
}

// Parse extracts video info from one item fragment. Returns false when the
// required title or channel text is missing.
func Parse(fragment string, sel Selectors) (category.VideoInfo, bool) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return category.VideoInfo{}, false
	}

	title := firstText(doc, sel.Title)
	channel := firstText(doc, sel.Channel)
	if title == "" || channel == "" {
		return category.VideoInfo{}, false
	}

	return category.VideoInfo{
		Title:         title,
		ChannelName:   channel,
		Description:   firstText(doc, sel.Description),
		IsMembersOnly: hasMembersBadge(doc, sel),
	}, true
}

// firstText returns the collapsed text of the first node matching any of
// the selectors, in selector order.
func firstText(doc *html.Node, selectors []string) string {
	for _, sel := range selectors {
		for _, n := range querySelectorAll(doc, sel) {
			if text := collapseSpace(collectText(n)); text != "" {
				return text
			}
		}
	}
	return ""
}

func hasMembersBadge(doc *html.Node, sel Selectors) bool {
	for _, s := range sel.MembersBadge {
		if len(querySelectorAll(doc, s)) > 0 {
			return true
		}
	}
	if sel.MembersClassHint == "" {
		return false
	}

	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode &&
			strings.Contains(getAttr(n, "class"), sel.MembersClassHint) {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// collectText concatenates all text nodes under n.
func collectText(n *html.Node) string {
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

// collapseSpace trims and squeezes runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
