package core

import (
	"encoding/json"
	"time"

	"github.com/loungefm/loungefm/internal/domain"
)

// EventKind names match the wire protocol one to one.
type EventKind string

const (
	KindMemberJoined     EventKind = "memberJoined"
	KindMemberLeft       EventKind = "memberLeft"
	KindLoungeDeleted    EventKind = "loungeDeleted"
	KindSongAdded        EventKind = "songAdded"
	KindSongVoted        EventKind = "songVoted"
	KindSongRemoved      EventKind = "songRemoved"
	KindSongPlayed       EventKind = "songPlayed"
	KindUserJoinedRoom   EventKind = "userJoinedRoom"
	KindUserLeftRoom     EventKind = "userLeftRoom"
	KindNewMessage       EventKind = "newMessage"
	KindUserTyping       EventKind = "userTyping"
	KindNowPlayingUpdate EventKind = "nowPlayingUpdate"
)

// Event is the closed set of things a lounge channel can deliver.
// Each variant is a struct below; nothing else goes over a channel.
type Event interface {
	Kind() EventKind
}

// State-mutation events go to every subscriber, the originator included,
// because they carry durable state all clients must converge to.

type MemberJoined struct {
	UserID domain.UserID `json:"userId"`
}

type MemberLeft struct {
	UserID domain.UserID `json:"userId"`
}

// LoungeDeleted is the last event a channel ever carries.
type LoungeDeleted struct{}

type SongAdded struct {
	Song domain.Track `json:"song"`
}

// SongVoted carries the post-mutation track state.
type SongVoted struct {
	Song   domain.Track     `json:"song"`
	UserID domain.UserID    `json:"userId"`
	Vote   domain.Direction `json:"vote"`
}

type SongRemoved struct {
	SongID domain.TrackID `json:"songId"`
}

// SongPlayed tells every client to drop the track from its live ranking;
// the track stays in lounge state for dedup until removed.
type SongPlayed struct {
	Song domain.Track `json:"song"`
}

// Presence signals exclude the originator; it already knows its own action.

type UserJoinedRoom struct {
	UserID domain.UserID `json:"userId"`
}

type UserLeftRoom struct {
	UserID domain.UserID `json:"userId"`
}

// NewMessage echoes to everyone including the sender, so the sender's UI
// renders from the server copy rather than optimistic local state.
type NewMessage struct {
	ID        string        `json:"id"`
	UserID    domain.UserID `json:"userId"`
	User      domain.User   `json:"user"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type UserTyping struct {
	UserID   domain.UserID `json:"userId"`
	IsTyping bool          `json:"isTyping"`
}

// NowPlayingUpdate is advisory and never persisted.
type NowPlayingUpdate struct {
	Track    json.RawMessage `json:"track"`
	Position float64         `json:"position"`
	UserID   domain.UserID   `json:"userId"`
}

func (MemberJoined) Kind() EventKind     { return KindMemberJoined }
func (MemberLeft) Kind() EventKind       { return KindMemberLeft }
func (LoungeDeleted) Kind() EventKind    { return KindLoungeDeleted }
func (SongAdded) Kind() EventKind        { return KindSongAdded }
func (SongVoted) Kind() EventKind        { return KindSongVoted }
func (SongRemoved) Kind() EventKind      { return KindSongRemoved }
func (SongPlayed) Kind() EventKind       { return KindSongPlayed }
func (UserJoinedRoom) Kind() EventKind   { return KindUserJoinedRoom }
func (UserLeftRoom) Kind() EventKind     { return KindUserLeftRoom }
func (NewMessage) Kind() EventKind       { return KindNewMessage }
func (UserTyping) Kind() EventKind       { return KindUserTyping }
func (NowPlayingUpdate) Kind() EventKind { return KindNowPlayingUpdate }

// Envelope is the wire shape for both directions.
type Envelope struct {
	Type EventKind       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent marshals an event once so a broadcast serializes one time,
// not once per subscriber.
func EncodeEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Kind(), Data: data})
}
