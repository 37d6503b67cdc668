package service

import (
	"strings"

	"viewergate/internal/catalog/models"
	profilemodels "viewergate/internal/profile/models"
	"viewergate/internal/visibility"
)

const (
	KindModel  = "model"
	KindCollab = "collab"
)

// Request is a listing query. Cursor, when present, carries the query and
// page size of the previous page; a different Query or PageSize restarts from
// the first page. QuerySet marks Query as given even when it is empty, which
// clears a cursor's query.
type Request struct {
	Query    string
	QuerySet bool
	Page     int
	PageSize int
	Cursor   string
}

// Card is what a catalog surface renders for one subject.
type Card struct {
	Kind         string              `json:"kind"`
	Key          string              `json:"key"`
	Title        string              `json:"title"`
	Tags         []string            `json:"tags"`
	CoverRef     string              `json:"cover_ref,omitempty"`
	Visibility   visibility.Decision `json:"visibility"`
	OutboundLink string              `json:"outbound_link,omitempty"`
	Members      []Member            `json:"members,omitempty"`
}

type Member struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	CoverRef string `json:"cover_ref,omitempty"`
}

// Listing is one page of cards. Total counts what is left after exclusion;
// Visible counts what also matched the query, across all pages.
type Listing struct {
	Items      []Card `json:"items"`
	Query      string `json:"query"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Visible    int    `json:"visible"`
	Total      int    `json:"total"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type Detail struct {
	Model   Card   `json:"model"`
	Collabs []Card `json:"collabs"`
}

func newListing(cards []Card, cursor models.Cursor, matched, kept int, more bool) *Listing {
	l := &Listing{
		Items:    cards,
		Query:    cursor.Query,
		Page:     cursor.Page,
		PageSize: cursor.PageSize,
		Visible:  matched,
		Total:    kept,
	}
	if more {
		l.NextCursor = cursor.Next().Encode()
	}
	return l
}

func entitySubject(e models.Entity) visibility.Subject {
	return visibility.Subject{Names: e.Names(), GenderSensitive: e.GenderSensitive}
}

// collabSubject includes member display names so a viewer is also excluded
// from collabs that list them under a different key.
func collabSubject(c models.Collab, byKey map[string]models.Entity) visibility.Subject {
	names := c.Names()
	for _, k := range c.MemberKeys {
		if e, ok := byKey[strings.ToLower(strings.TrimSpace(k))]; ok && e.DisplayName != "" {
			names = append(names, e.DisplayName)
		}
	}
	return visibility.Subject{Names: names, GenderSensitive: true}
}

// finishDecision degrades openLink to hidden when there is no link to open.
func finishDecision(d visibility.Decision, link string) (visibility.Decision, string) {
	if d.Action != visibility.ActionOpenLink {
		return d, ""
	}
	link = strings.TrimSpace(link)
	if link == "" {
		d.Action = visibility.ActionHidden
	}
	return d, link
}

func (s *Service) entityCard(viewer *profilemodels.VerificationProfile, e models.Entity, surface visibility.Surface) Card {
	d, link := finishDecision(s.resolver.Resolve(viewer, entitySubject(e), surface), e.OutboundLink)
	return Card{
		Kind:         KindModel,
		Key:          e.Key,
		Title:        e.Title(),
		Tags:         e.Tags(),
		CoverRef:     e.CoverRef,
		Visibility:   d,
		OutboundLink: link,
	}
}

func (s *Service) collabCard(viewer *profilemodels.VerificationProfile, c models.Collab, byKey map[string]models.Entity) Card {
	d, link := finishDecision(s.resolver.Resolve(viewer, collabSubject(c, byKey), visibility.SurfaceGrid), c.OutboundLink)
	members := make([]Member, 0, len(c.MemberKeys))
	for _, k := range c.MemberKeys {
		m := Member{Key: k, Title: k}
		if e, ok := byKey[strings.ToLower(strings.TrimSpace(k))]; ok {
			m.Title = e.Title()
			m.CoverRef = e.CoverRef
		}
		members = append(members, m)
	}
	return Card{
		Kind:         KindCollab,
		Key:          c.ID,
		Title:        c.DisplayTitle(),
		Tags:         c.Tags(),
		CoverRef:     c.CoverRef,
		Visibility:   d,
		OutboundLink: link,
		Members:      members,
	}
}
