package models

import (
	"sort"
	"strings"

	pstrings "viewergate/pkg/platform/strings"
	"viewergate/pkg/platform/text"
)

// Entity is a model card supplied by the catalog data source.
type Entity struct {
	Key          string   `json:"key"`
	DisplayName  string   `json:"display_name"`
	Identifiers  []string `json:"identifiers"`
	CoverRef     string   `json:"cover_ref"`
	OutboundLink string   `json:"outbound_link"`
	// GenderSensitive subjects are refined by the restricted-gender policy.
	GenderSensitive bool `json:"gender_sensitive"`
	Position        int  `json:"position"`
}

// Title is the display name, falling back to the key.
func (e Entity) Title() string {
	if t := strings.TrimSpace(e.DisplayName); t != "" {
		return t
	}
	return e.Key
}

// Tags are the entity's hashtags. The key always comes first.
func (e Entity) Tags() []string {
	return Hashtags(append([]string{e.Key}, e.Identifiers...)...)
}

// Names are compared against the viewer's own names for exclusion.
func (e Entity) Names() []string {
	names := []string{e.Key}
	if e.DisplayName != "" {
		names = append(names, e.DisplayName)
	}
	return append(names, e.Identifiers...)
}

// SearchFields are the folded values a free-text query is matched against one
// at a time: display name, key, each alias and each tag.
func (e Entity) SearchFields() []string {
	fields := []string{e.DisplayName, e.Key}
	fields = append(fields, e.Identifiers...)
	return foldAll(append(fields, e.Tags()...))
}

// Collab is a card for content shared by several entities.
type Collab struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	MemberKeys   []string `json:"member_keys"`
	CoverRef     string   `json:"cover_ref"`
	OutboundLink string   `json:"outbound_link"`
	Position     int      `json:"position"`
}

func (c Collab) DisplayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return strings.Join(c.MemberKeys, " x ")
}

func (c Collab) Tags() []string {
	return Hashtags(c.MemberKeys...)
}

func (c Collab) Names() []string {
	names := make([]string, 0, len(c.MemberKeys)+1)
	if c.Title != "" {
		names = append(names, c.Title)
	}
	return append(names, c.MemberKeys...)
}

func (c Collab) SearchFields() []string {
	fields := append([]string{c.Title}, c.MemberKeys...)
	return foldAll(append(fields, c.Tags()...))
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if f := text.Fold(strings.TrimSpace(v)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// HasMember reports whether key is one of the collab's members, ignoring case.
func (c Collab) HasMember(key string) bool {
	for _, k := range c.MemberKeys {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(key)) {
			return true
		}
	}
	return false
}

// memberSetKey identifies a collab by its members regardless of order or case.
func (c Collab) memberSetKey() string {
	lowered := make([]string, len(c.MemberKeys))
	for i, k := range c.MemberKeys {
		lowered[i] = strings.ToLower(k)
	}
	keys := pstrings.DedupeAndTrim(lowered)
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// DedupeCollabs collapses collabs with the same member set. The survivor keeps
// the position of the first one seen; a collab with a cover beats one without,
// then the one listing more member keys wins. Collabs without members are
// dropped.
func DedupeCollabs(collabs []Collab) []Collab {
	index := make(map[string]int, len(collabs))
	out := make([]Collab, 0, len(collabs))
	for _, c := range collabs {
		key := c.memberSetKey()
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		if preferCollab(out[i], c) {
			out[i] = c
		}
	}
	return out
}

func preferCollab(existing, incoming Collab) bool {
	if existing.CoverRef == "" && incoming.CoverRef != "" {
		return true
	}
	if existing.CoverRef != "" && incoming.CoverRef == "" {
		return false
	}
	return len(incoming.MemberKeys) > len(existing.MemberKeys)
}
