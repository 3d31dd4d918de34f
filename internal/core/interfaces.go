package core

import "github.com/loungefm/loungefm/internal/domain"

// SessionID identifies one live connection. The identity bound to it is
// set once at handshake and never re-derived per message.
type SessionID string

// Subscriber is one channel endpoint. Owned by the adapter; the broker
// only calls TrySend and, when dropping a slow subscriber, Close.
type Subscriber interface {
	TrySend(data []byte) error
	Close()
}

// Broker fans lounge events out to subscribed sessions. It is constructed
// once in main and injected into everything that emits; there is no
// process-wide handle to reach for. Per-lounge delivery order matches
// publish order; different lounges are independent.
type Broker interface {
	Subscribe(id domain.LoungeID, sid SessionID, sub Subscriber)
	Unsubscribe(id domain.LoungeID, sid SessionID)

	// Publish delivers to every subscriber of the lounge.
	Publish(id domain.LoungeID, ev Event)
	// PublishExcept delivers to every subscriber but one — presence
	// signals exclude their originator.
	PublishExcept(id domain.LoungeID, except SessionID, ev Event)

	// CloseLounge delivers everything already published, then closes all
	// subscribers and retires the channel. Later publishes are dropped.
	CloseLounge(id domain.LoungeID)

	SubscriberCount(id domain.LoungeID) int
	Shutdown()
}

// LeaveResult reports what a leave did beyond removing the member.
type LeaveResult struct {
	WasMember   bool
	Deactivated bool
	// NewCreator is set when ownership transferred.
	NewCreator domain.UserID
}

// LoungeService is the per-lounge state machine: membership and ranking.
// Every mutation is serialized on the lounge's lock and its event reaches
// the broker before the lock is released, so broadcast order equals
// commit order. Snapshots are taken post-commit, never mid-mutation.
type LoungeService interface {
	ID() domain.LoungeID
	Code() domain.LoungeCode
	Active() bool
	IsMember(userID domain.UserID) bool
	MemberCount() int

	// Snapshot returns a post-commit copy of the lounge record.
	Snapshot() domain.Lounge
	// Playlist returns unplayed tracks ranked by score descending,
	// insertion time ascending.
	Playlist() []domain.Track

	Join(userID domain.UserID) error
	Leave(userID domain.UserID) (LeaveResult, error)
	Delete(requesterID domain.UserID) error

	AddTrack(userID domain.UserID, in domain.TrackInput) (domain.Track, error)
	Vote(userID domain.UserID, trackID domain.TrackID, dir domain.Direction) (domain.Track, error)
	RemoveTrack(userID domain.UserID, trackID domain.TrackID) error
	MarkPlayed(trackID domain.TrackID) (domain.Track, error)
}
