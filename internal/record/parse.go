package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// undeterminedLang is the provider's value for "language unknown".
const undeterminedLang = "und"

type rawUser struct {
	IDStr      string      `json:"id_str"`
	ID         json.Number `json:"id"`
	ScreenName string      `json:"screen_name"`
}

type rawIndexed struct {
	Text       string `json:"text"`
	ScreenName string `json:"screen_name"`
	Indices    []int  `json:"indices"`
}

type rawVariant struct {
	Bitrate     *int   `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type rawMedia struct {
	IDStr         string                     `json:"id_str"`
	ID            json.Number                `json:"id"`
	Type          string                     `json:"type"`
	MediaURLHTTPS string                     `json:"media_url_https"`
	MediaURL      string                     `json:"media_url"`
	Sizes         map[string]json.RawMessage `json:"sizes"`
	VideoInfo     *struct {
		Variants []rawVariant `json:"variants"`
	} `json:"video_info"`
}

type rawEntities struct {
	Hashtags     []rawIndexed `json:"hashtags"`
	UserMentions []rawIndexed `json:"user_mentions"`
	Media        []rawMedia   `json:"media"`
}

type rawRecord struct {
	IDStr            string          `json:"id_str"`
	ID               json.Number     `json:"id"`
	FullText         *string         `json:"full_text"`
	Text             string          `json:"text"`
	Lang             string          `json:"lang"`
	CreatedAt        string          `json:"created_at"`
	RetweetCount     int             `json:"retweet_count"`
	QuoteCount       int             `json:"quote_count"`
	FavoriteCount    int             `json:"favorite_count"`
	User             *rawUser        `json:"user"`
	Entities         rawEntities     `json:"entities"`
	ExtendedEntities *rawEntities    `json:"extended_entities"`
	RetweetedStatus  json.RawMessage `json:"retweeted_status"`
	QuotedStatus     json.RawMessage `json:"quoted_status"`
}

// Parse converts one provider payload into a Record. All field-name fallbacks
// live here, tried in this order:
//
//	record id:  id_str, then id
//	user id:    user.id_str, then user.id
//	text:       full_text, then text
//	media id:   id_str, then id
//	media url:  media_url_https, then media_url
//
// A language of "und" is treated as absent. When retweeted_status is present
// the payload is a retweet and quoted_status on the same object is ignored.
func Parse(data []byte) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromRaw(&raw)
}

func fromRaw(raw *rawRecord) (*Record, error) {
	id := firstNonEmpty(raw.IDStr, raw.ID.String())
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	if raw.User == nil {
		return nil, fmt.Errorf("%w: record %s has no user", ErrMalformed, id)
	}
	userID := firstNonEmpty(raw.User.IDStr, raw.User.ID.String())
	if userID == "" {
		return nil, fmt.Errorf("%w: record %s has no user id", ErrMalformed, id)
	}

	rec := &Record{
		ID:            id,
		UserID:        userID,
		ScreenName:    raw.User.ScreenName,
		Text:          raw.Text,
		CreatedAt:     raw.CreatedAt,
		RetweetCount:  raw.RetweetCount,
		QuoteCount:    raw.QuoteCount,
		FavoriteCount: raw.FavoriteCount,
	}
	if raw.FullText != nil {
		rec.Text = *raw.FullText
	}
	if raw.Lang != undeterminedLang {
		rec.Lang = raw.Lang
	}

	entities, err := parseEntities(id, raw.Entities)
	if err != nil {
		return nil, err
	}
	rec.Entities = entities
	rec.Media = parseMedia(raw.Entities.Media, raw.ExtendedEntities)

	if present(raw.RetweetedStatus) {
		child, err := parseChild(raw.RetweetedStatus)
		if err != nil {
			return nil, fmt.Errorf("retweeted status of %s: %w", id, err)
		}
		rec.Retweeted = child
	} else if present(raw.QuotedStatus) {
		child, err := parseChild(raw.QuotedStatus)
		if err != nil {
			return nil, fmt.Errorf("quoted status of %s: %w", id, err)
		}
		rec.Quoted = child
	}

	return rec, nil
}

func parseChild(data json.RawMessage) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromRaw(&raw)
}

// parseEntities merges mentions and hashtags, mentions first, keeping the
// provider order inside each group. Labels are copied as-is; an empty label
// is reported later by whoever renders the entity.
func parseEntities(id string, ents rawEntities) ([]Entity, error) {
	out := make([]Entity, 0, len(ents.UserMentions)+len(ents.Hashtags))
	for _, m := range ents.UserMentions {
		e, err := indexed(id, EntityMention, m.ScreenName, m.Indices)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	for _, h := range ents.Hashtags {
		e, err := indexed(id, EntityHashtag, h.Text, h.Indices)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func indexed(id string, kind EntityKind, label string, indices []int) (Entity, error) {
	if len(indices) != 2 {
		return Entity{}, fmt.Errorf("%w: record %s has %s with %d indices", ErrMalformed, id, kind, len(indices))
	}
	return Entity{Kind: kind, Label: label, Start: indices[0], End: indices[1]}, nil
}

// parseMedia collects attachments from entities and extended_entities. The
// extended list is richer (video variants, all photos), so it wins on
// duplicate ids.
func parseMedia(basic []rawMedia, extended *rawEntities) []Media {
	var all []rawMedia
	if extended != nil {
		all = append(all, extended.Media...)
	}
	all = append(all, basic...)

	seen := make(map[string]bool, len(all))
	out := make([]Media, 0, len(all))
	for _, m := range all {
		id := firstNonEmpty(m.IDStr, m.ID.String())
		if id != "" && seen[id] {
			continue
		}
		seen[id] = true

		media := Media{
			ID:   id,
			Type: m.Type,
			URL:  firstNonEmpty(m.MediaURLHTTPS, m.MediaURL),
		}
		for size := range m.Sizes {
			media.Sizes = append(media.Sizes, size)
		}
		sort.Strings(media.Sizes)
		if m.VideoInfo != nil {
			for _, v := range m.VideoInfo.Variants {
				variant := Variant{ContentType: v.ContentType, URL: v.URL}
				if v.Bitrate != nil {
					variant.Bitrate = *v.Bitrate
				}
				media.Variants = append(media.Variants, variant)
			}
		}
		out = append(out, media)
	}
	return out
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
