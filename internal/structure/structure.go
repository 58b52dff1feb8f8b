// Package structure models the outline of an authored document: the ordered
// list of sections (Word) or slides (PowerPoint) a project is configured
// with. It is intentionally small and dependency-free:
//
//   - One Item shape for both kinds; the kind only changes the vocabulary
//     (JSON key, id prefix, export extension)
//   - Validation with stable, client-facing error messages
//   - Raw JSON in, raw JSON out: unknown fields on items survive edits
//   - No logging and no persistence (callers own both)
//
// Outlines are stored and exchanged as JSON documents shaped like
// {"sections":[{"id":...,"title":...,"order":...}, ...]} for Word and
// {"slides":[...]} for PowerPoint.
package structure

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind selects the outline vocabulary of a project.
type Kind string

const (
	// Word projects produce .docx documents made of sections.
	Word Kind = "word"
	// PowerPoint projects produce .pptx presentations made of slides.
	PowerPoint Kind = "powerpoint"
)

// MaxTitleRunes is the upper bound on an item title length.
const MaxTitleRunes = 255

// ParseKind returns the Kind for s, and whether s named a known kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case Word, PowerPoint:
		return Kind(s), true
	}
	return "", false
}

// String returns the wire value of the kind.
func (k Kind) String() string { return string(k) }

// Key returns the top-level JSON key holding the item list.
func (k Kind) Key() string {
	if k == PowerPoint {
		return "slides"
	}
	return "sections"
}

// ItemNoun returns the lowercase vocabulary word for one item.
func (k Kind) ItemNoun() string {
	if k == PowerPoint {
		return "slide"
	}
	return "section"
}

// IDPrefix returns the conventional id prefix for items of this kind.
// Generated and default item ids follow it ("section-1", "slide-3"), and
// generation status counts content entries by it.
func (k Kind) IDPrefix() string { return k.ItemNoun() + "-" }

// Extension returns the export file extension (without dot) for the kind.
func (k Kind) Extension() string {
	if k == PowerPoint {
		return "pptx"
	}
	return "docx"
}

// Label is the capitalized item noun used at the start of error messages.
func (k Kind) Label() string {
	if k == PowerPoint {
		return "Slide"
	}
	return "Section"
}

// Display is the product name used in error messages ("Word", "PowerPoint").
func (k Kind) Display() string {
	if k == PowerPoint {
		return "PowerPoint"
	}
	return "Word"
}

// Item is one outline entry. Both kinds share the shape; only the
// surrounding vocabulary differs.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// ValidationError reports why an outline document was rejected. The message
// is stable and safe to surface to API clients.
type ValidationError struct {
	msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.msg }

func errf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Validate checks a raw JSON outline against the rules for the kind:
// the kind's key must hold a non-empty array of objects, every object must
// carry id, title and order, ids and orders must be unique, titles must be
// 1..MaxTitleRunes characters after trimming, orders must be non-negative
// integers. It returns nil or a *ValidationError; it never mutates raw.
func Validate(kind Kind, raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return errf("structure must be a JSON object")
	}

	listRaw, ok := top[kind.Key()]
	if !ok {
		return errf("%s document structure must contain '%s' array", kind.Display(), kind.Key())
	}

	var list []json.RawMessage
	if err := json.Unmarshal(listRaw, &list); err != nil {
		return errf("'%s' must be an array", kind.Key())
	}
	if len(list) == 0 {
		return errf("%s document must have at least one %s", kind.Display(), kind.ItemNoun())
	}

	seenIDs := make(map[string]struct{}, len(list))
	seenOrders := make(map[int]struct{}, len(list))

	for i, itemRaw := range list {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(itemRaw, &fields); err != nil {
			return errf("%s %d must be an object", kind.Label(), i)
		}

		idRaw, hasID := fields["id"]
		titleRaw, hasTitle := fields["title"]
		orderRaw, hasOrder := fields["order"]
		if !hasID || !hasTitle || !hasOrder {
			return errf("%s %d must contain 'id', 'title', and 'order' fields", kind.Label(), i)
		}

		var id string
		if err := json.Unmarshal(idRaw, &id); err != nil || strings.TrimSpace(id) == "" {
			return errf("%s %d 'id' must be a non-empty string", kind.Label(), i)
		}
		if _, dup := seenIDs[id]; dup {
			return errf("Duplicate %s ID: %s", kind.ItemNoun(), id)
		}
		seenIDs[id] = struct{}{}

		var title string
		if err := json.Unmarshal(titleRaw, &title); err != nil || strings.TrimSpace(title) == "" {
			return errf("%s %d 'title' must be a non-empty string", kind.Label(), i)
		}
		if utf8.RuneCountInString(title) > MaxTitleRunes {
			return errf("%s %d 'title' must be less than %d characters", kind.Label(), i, MaxTitleRunes)
		}

		var order float64
		if err := json.Unmarshal(orderRaw, &order); err != nil || order != math.Trunc(order) || order < 0 {
			return errf("%s %d 'order' must be a non-negative integer", kind.Label(), i)
		}
		n := int(order)
		if _, dup := seenOrders[n]; dup {
			return errf("Duplicate %s order: %d", kind.ItemNoun(), n)
		}
		seenOrders[n] = struct{}{}
	}

	return nil
}

// Items decodes the item list out of a raw outline document, preserving the
// stored order. A missing key yields an empty slice, not an error; callers
// that need validated input should call Validate first.
func Items(kind Kind, raw []byte) ([]Item, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	listRaw, ok := top[kind.Key()]
	if !ok {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(listRaw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind.Key(), err)
	}
	return items, nil
}

// Sorted returns a copy of items in canonical order (ascending by Order,
// stable for equal values). The input slice is not modified.
func Sorted(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Encode wraps items under the kind's top-level key and returns the JSON
// outline document.
func Encode(kind Kind, items []Item) []byte {
	b, _ := json.Marshal(map[string][]Item{kind.Key(): items})
	return b
}

// Default returns the initial outline for a freshly created document of the
// given kind: one item, id "<noun>-1", order 0, with a kind-appropriate
// title.
func Default(kind Kind) []byte {
	title := "Introduction"
	if kind == PowerPoint {
		title = "Title Slide"
	}
	return Encode(kind, []Item{{ID: kind.IDPrefix() + "1", Title: title, Order: 0}})
}

// ApplyOrders returns a copy of raw with the order of every listed item id
// replaced by its mapped value. Ids absent from orders keep their order;
// ids in orders that do not appear in the outline are ignored. Unknown
// fields on items are preserved. The result is NOT revalidated here (a
// partial remap can introduce duplicate orders); callers run Validate on it
// before persisting.
func ApplyOrders(kind Kind, raw []byte, orders map[string]int) ([]byte, error) {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	list, _ := top[kind.Key()].([]any)
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		if n, ok := orders[id]; ok {
			obj["order"] = n
		}
	}
	return json.Marshal(top)
}
