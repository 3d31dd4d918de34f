package domain

import "errors"

// Error kinds surfaced to callers. They are never broadcast to a channel;
// transports map them onto their own status codes.
var (
	ErrLoungeNotFound = errors.New("lounge not found")
	ErrTrackNotFound  = errors.New("track not found")
	ErrNotMember      = errors.New("not a member of this lounge")
	ErrNotCreator     = errors.New("only the creator may do this")
	ErrCannotRemove   = errors.New("only the adder or the creator may remove a track")
	ErrLoungeFull     = errors.New("lounge is full")
	ErrDuplicateTrack = errors.New("track already in playlist")

	ErrNameEmpty        = errors.New("lounge name is required")
	ErrCapacityTooSmall = errors.New("capacity must be at least 2")
	ErrBadDirection     = errors.New("vote must be +1 or -1")

	// ErrCodeExhausted means code generation retries ran out. With a
	// 31^6 code space this is an internal fault, not a user error.
	ErrCodeExhausted = errors.New("could not generate a unique lounge code")
)
