// Package record holds the typed form of a reviewable post as returned by
// the record provider. Records are fetched fresh for every review and are
// never mutated by the review workflow.
package record

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by Parse when a payload lacks a required field or
// carries a value of the wrong shape.
var ErrMalformed = errors.New("malformed record")

// EntityKind distinguishes the positional annotations found in a text.
type EntityKind string

const (
	EntityMention EntityKind = "mention"
	EntityHashtag EntityKind = "hashtag"
)

func (k EntityKind) String() string { return string(k) }

func (k EntityKind) IsValid() bool {
	switch k {
	case EntityMention, EntityHashtag:
		return true
	}
	return false
}

// Entity is a mention or hashtag occupying the half-open range [Start, End)
// of the record text. Offsets count Unicode code points, which is the unit the
// provider uses for its indices.
type Entity struct {
	Kind  EntityKind
	Label string
	Start int
	End   int
}

// Record is a single reviewable post.
type Record struct {
	ID            string
	UserID        string
	ScreenName    string
	Text          string
	Lang          string
	CreatedAt     string
	RetweetCount  int
	QuoteCount    int
	FavoriteCount int

	// Entities holds mentions followed by hashtags in provider order.
	Entities []Entity
	// Media holds the record's own attachments only.
	Media []Media

	// At most one of Retweeted and Quoted is set by Parse.
	Retweeted *Record
	Quoted    *Record
}

func (r *Record) IsRetweet() bool { return r.Retweeted != nil }

func (r *Record) IsQuote() bool { return r.Quoted != nil }

// ReferencedID returns the id of the record this one is based on. A retweet
// wins over a quote; records that reference nothing return "".
func (r *Record) ReferencedID() string {
	switch {
	case r.Retweeted != nil:
		return r.Retweeted.ID
	case r.Quoted != nil:
		return r.Quoted.ID
	}
	return ""
}

// URL links to the record using both the author and record ids.
func (r *Record) URL() string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", r.UserID, r.ID)
}

// UserURL links to the author's profile.
func (r *Record) UserURL() string {
	return "https://twitter.com/" + r.ScreenName
}

// HasMedia reports whether the record or the record it is based on carries
// attachments.
func (r *Record) HasMedia() bool {
	return len(r.AllMedia()) > 0
}

// AllMedia returns the record's media followed by the media of the retweeted
// or quoted record, one level deep.
func (r *Record) AllMedia() []Media {
	out := make([]Media, 0, len(r.Media))
	out = append(out, r.Media...)
	if r.Retweeted != nil {
		out = append(out, r.Retweeted.Media...)
	}
	if r.Quoted != nil {
		out = append(out, r.Quoted.Media...)
	}
	return out
}

func (r *Record) String() string {
	return fmt.Sprintf("ID: %s\nText: %s\nURL: %s\nRetweet: %v\nQuote: %v\nMedia: %d",
		r.ID, r.Text, r.URL(), r.IsRetweet(), r.IsQuote(), len(r.AllMedia()))
}
