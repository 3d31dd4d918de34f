package domain

import (
	"time"

	"github.com/google/uuid"
)

type TrackID string

// Direction is a vote's polarity: +1 upvote, -1 downvote.
type Direction int

const (
	Upvote   Direction = 1
	Downvote Direction = -1
)

func (d Direction) Valid() bool { return d == Upvote || d == Downvote }

// Vote pairs a voter with its current direction. A voter appears at most
// once in a track's voter list.
type Vote struct {
	UserID    UserID    `json:"userId"`
	Direction Direction `json:"vote"`
}

// Track is one playlist entry within a lounge. Score always equals the sum
// of current voter directions; core maintains that under the lounge lock.
type Track struct {
	ID         TrackID   `json:"id"`
	LoungeID   LoungeID  `json:"loungeId"`
	CatalogID  string    `json:"catalogId"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	AlbumArt   string    `json:"albumArt,omitempty"`
	DurationMs int       `json:"duration"`
	PreviewURL string    `json:"previewUrl,omitempty"`
	AddedBy    UserID    `json:"addedBy"`
	Score      int       `json:"votes"`
	Voters     []Vote    `json:"voters"`
	Played     bool      `json:"isPlayed"`
	AddedAt    time.Time `json:"createdAt"`
}

// TrackInput is the catalog metadata a member submits when adding a track.
type TrackInput struct {
	CatalogID  string `json:"catalogId" binding:"required" validate:"required"`
	Title      string `json:"title" binding:"required" validate:"required"`
	Artist     string `json:"artist" binding:"required" validate:"required"`
	Album      string `json:"album"`
	AlbumArt   string `json:"albumArt"`
	DurationMs int    `json:"duration"`
	PreviewURL string `json:"previewUrl"`
}

func NewTrack(loungeID LoungeID, addedBy UserID, in TrackInput) *Track {
	return &Track{
		ID:         TrackID(uuid.NewString()),
		LoungeID:   loungeID,
		CatalogID:  in.CatalogID,
		Title:      in.Title,
		Artist:     in.Artist,
		Album:      in.Album,
		AlbumArt:   in.AlbumArt,
		DurationMs: in.DurationMs,
		PreviewURL: in.PreviewURL,
		AddedBy:    addedBy,
		Voters:     []Vote{},
		AddedAt:    time.Now(),
	}
}
