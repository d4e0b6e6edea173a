package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAcceptsEveryInboundEvent(t *testing.T) {
	cases := map[string]string{
		EventJoinDocument:   `{"event":"join-document","data":{"documentId":"d1","user":{"username":"alice"}}}`,
		EventTextChange:     `{"event":"text-change","data":{"documentId":"d1","content":""}}`,
		EventTitleChange:    `{"event":"title-change","data":{"documentId":"d1","title":"T"}}`,
		EventCursorPosition: `{"event":"cursor-position","data":{"documentId":"d1","position":{"index":3,"length":0}}}`,
		EventUserTyping:     `{"event":"user-typing","data":{"documentId":"d1","isTyping":false}}`,
		EventFormatText:     `{"event":"format-text","data":{"documentId":"d1","formatType":"bold","formatValue":true}}`,
		EventLeaveDocument:  `{"event":"leave-document","data":{"documentId":"d1"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Decode([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, name, ev.Name())
			assert.Equal(t, "d1", ev.Document())
		})
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"event":`,
		"unknown event":      `{"event":"delete-document","data":{"documentId":"d1"}}`,
		"missing event name": `{"data":{"documentId":"d1"}}`,
		"missing data":       `{"event":"text-change"}`,
		"missing document":   `{"event":"text-change","data":{"content":"x"}}`,
		"missing content":    `{"event":"text-change","data":{"documentId":"d1"}}`,
		"missing title":      `{"event":"title-change","data":{"documentId":"d1"}}`,
		"missing user":       `{"event":"join-document","data":{"documentId":"d1"}}`,
		"short username":     `{"event":"join-document","data":{"documentId":"d1","user":{"username":"a"}}}`,
		"long username":      `{"event":"join-document","data":{"documentId":"d1","user":{"username":"abcdefghijklmnopqrstu"}}}`,
		"null position":      `{"event":"cursor-position","data":{"documentId":"d1","position":null}}`,
		"missing isTyping":   `{"event":"user-typing","data":{"documentId":"d1"}}`,
		"missing formatType": `{"event":"format-text","data":{"documentId":"d1"}}`,
		"wrong type":         `{"event":"text-change","data":{"documentId":"d1","content":42}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestOutboundMarshalsEnvelope(t *testing.T) {
	o := Outbound{Event: EventTitleUpdated, Data: TitleUpdated{Title: "Plan", User: User{ID: "u1", Username: "alice"}}}
	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var got struct {
		Event string `json:"event"`
		Data  struct {
			Title string `json:"title"`
			User  User   `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, EventTitleUpdated, got.Event)
	assert.Equal(t, "Plan", got.Data.Title)
	assert.Equal(t, "alice", got.Data.User.Username)
}

func TestFormatTimestampIsUTCWithMillis(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 4, 5, 123_000_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-01T09:04:05.123Z", formatTimestamp(ts))
}

func TestNormalizeUserFillsServerFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := normalizeUser(User{Username: "  bob ", IsTyping: true}, "conn-7", now)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "conn-7", u.ID)
	assert.Contains(t, palette, u.Color)
	assert.Equal(t, now, u.JoinedAt)
	assert.False(t, u.IsTyping)

	kept := normalizeUser(User{ID: "u1", Username: "bob", Color: "#000000"}, "conn-7", now)
	assert.Equal(t, "u1", kept.ID)
	assert.Equal(t, "#000000", kept.Color)
}
