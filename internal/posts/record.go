// Package posts defines the Post Record built from a channel post.
package posts

import (
	"errors"
	"time"

	"github.com/mymmrac/telego"
)

// DefaultTitle is used wherever a post has no origin title.
const DefaultTitle = "Scripters Marketplace"

// ErrInvalidRecord is returned when a post cannot be identified.
var ErrInvalidRecord = errors.New("invalid record: missing post id")

// Record is the structured representation of one channel post.
// Optional fields are nil when the upstream event does not carry them.
type Record struct {
	ID             int             `json:"id" bson:"post_id"`
	ChatID         int64           `json:"chat_id,omitempty" bson:"chat_id,omitempty"`
	Date           time.Time       `json:"date" bson:"date,omitempty"`
	Caption        *string         `json:"caption,omitempty" bson:"caption,omitempty"`
	Media          []string        `json:"media" bson:"media"`
	OriginTitle    *string         `json:"origin_title,omitempty" bson:"origin_title,omitempty"`
	OriginUsername *string         `json:"origin_username,omitempty" bson:"origin_username,omitempty"`
	Raw            *telego.Message `json:"raw,omitempty" bson:"-"`
}

// FromMessage builds a Record from a delivered channel post.
// The sender chat takes priority over the chat for origin fields.
func FromMessage(msg *telego.Message) (Record, error) {
	if msg == nil || msg.MessageID == 0 {
		return Record{}, ErrInvalidRecord
	}

	rec := Record{
		ID:     msg.MessageID,
		ChatID: msg.Chat.ID,
		Media:  make([]string, 0, len(msg.Photo)),
		Raw:    msg,
	}
	if msg.Date != 0 {
		rec.Date = time.Unix(int64(msg.Date), 0).UTC()
	}

	switch {
	case msg.Caption != "":
		rec.Caption = stringPtr(msg.Caption)
	case msg.Text != "":
		rec.Caption = stringPtr(msg.Text)
	}

	for _, p := range msg.Photo {
		if p.FileID != "" {
			rec.Media = append(rec.Media, p.FileID)
		}
	}

	var title, username string
	if msg.SenderChat != nil {
		title, username = msg.SenderChat.Title, msg.SenderChat.Username
	}
	if title == "" {
		title = msg.Chat.Title
	}
	if username == "" {
		username = msg.Chat.Username
	}
	if title != "" {
		rec.OriginTitle = stringPtr(title)
	}
	if username != "" {
		rec.OriginUsername = stringPtr(username)
	}

	return rec, nil
}

// Validate reports ErrInvalidRecord for a record without an identity.
func (r Record) Validate() error {
	if r.ID <= 0 {
		return ErrInvalidRecord
	}
	return nil
}

// CaptionText returns the caption or an empty string.
func (r Record) CaptionText() string {
	if r.Caption == nil {
		return ""
	}
	return *r.Caption
}

// HasCaption reports whether the record carries a non-empty caption.
func (r Record) HasCaption() bool {
	return r.CaptionText() != ""
}

// Title returns the origin title, or DefaultTitle when there is none.
func (r Record) Title() string {
	if r.OriginTitle == nil || *r.OriginTitle == "" {
		return DefaultTitle
	}
	return *r.OriginTitle
}

// Username returns the origin handle or an empty string.
func (r Record) Username() string {
	if r.OriginUsername == nil {
		return ""
	}
	return *r.OriginUsername
}

func stringPtr(s string) *string {
	return &s
}
