package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/domain"
)

// loungeImpl is a threadsafe in-memory lounge. One mutex serializes every
// mutation; events are published while it is held, which is what keeps
// per-lounge broadcast order equal to commit order. It never touches
// adapter-owned connections — that is the broker's side of the line.
type loungeImpl struct {
	mu     sync.Mutex
	lounge *domain.Lounge
	// tracks keeps insertion order, so a stable sort by score leaves
	// ties ranked first-added-first.
	tracks []*domain.Track
	broker Broker
}

func NewLoungeService(lounge *domain.Lounge, broker Broker) LoungeService {
	return &loungeImpl{lounge: lounge, broker: broker}
}

func (l *loungeImpl) ID() domain.LoungeID     { return l.lounge.ID }
func (l *loungeImpl) Code() domain.LoungeCode { return l.lounge.Code }

func (l *loungeImpl) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lounge.Active
}

func (l *loungeImpl) IsMember(userID domain.UserID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lounge.Active && l.lounge.HasMember(userID)
}

func (l *loungeImpl) MemberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lounge.MemberIDs)
}

func (l *loungeImpl) Snapshot() domain.Lounge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *loungeImpl) snapshotLocked() domain.Lounge {
	out := *l.lounge
	out.MemberIDs = append([]domain.UserID(nil), l.lounge.MemberIDs...)
	return out
}

func (l *loungeImpl) Playlist() []domain.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Track, 0, len(l.tracks))
	for _, t := range l.tracks {
		if !t.Played {
			out = append(out, copyTrack(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

func (l *loungeImpl) Join(userID domain.UserID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.ErrLoungeNotFound
	}
	if l.lounge.HasMember(userID) {
		// Double-join is a no-op; nothing to announce.
		return nil
	}
	if len(l.lounge.MemberIDs) >= l.lounge.Capacity {
		return domain.ErrLoungeFull
	}
	l.lounge.MemberIDs = append(l.lounge.MemberIDs, userID)
	log.Info().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Str("user", string(userID)).Msg("member joined")
	l.broker.Publish(l.lounge.ID, MemberJoined{UserID: userID})
	return nil
}

func (l *loungeImpl) Leave(userID domain.UserID) (LeaveResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return LeaveResult{}, domain.ErrLoungeNotFound
	}
	if !l.lounge.HasMember(userID) {
		// Leaving a lounge you are not in succeeds, mirroring join.
		return LeaveResult{}, nil
	}

	members := l.lounge.MemberIDs[:0]
	for _, m := range l.lounge.MemberIDs {
		if m != userID {
			members = append(members, m)
		}
	}
	l.lounge.MemberIDs = members

	res := LeaveResult{WasMember: true}
	if l.lounge.CreatorID == userID && len(members) > 0 {
		// Ownership goes to the longest-tenured remaining member.
		l.lounge.CreatorID = members[0]
		res.NewCreator = members[0]
		log.Info().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Str("creator", string(members[0])).Msg("creator transferred")
	}

	l.broker.Publish(l.lounge.ID, MemberLeft{UserID: userID})
	log.Info().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Str("user", string(userID)).Msg("member left")

	if len(members) == 0 {
		l.deactivateLocked()
		res.Deactivated = true
	}
	return res, nil
}

func (l *loungeImpl) Delete(requesterID domain.UserID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.ErrLoungeNotFound
	}
	if l.lounge.CreatorID != requesterID {
		return domain.ErrNotCreator
	}
	l.broker.Publish(l.lounge.ID, LoungeDeleted{})
	l.deactivateLocked()
	log.Info().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Msg("lounge deleted")
	return nil
}

// deactivateLocked is terminal: tracks are discarded and the channel is
// closed after everything already published has been delivered.
func (l *loungeImpl) deactivateLocked() {
	l.lounge.Active = false
	l.tracks = nil
	l.broker.CloseLounge(l.lounge.ID)
}

func (l *loungeImpl) AddTrack(userID domain.UserID, in domain.TrackInput) (domain.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.Track{}, domain.ErrLoungeNotFound
	}
	if !l.lounge.HasMember(userID) {
		return domain.Track{}, domain.ErrNotMember
	}
	for _, t := range l.tracks {
		if t.CatalogID == in.CatalogID && !t.Played {
			return domain.Track{}, domain.ErrDuplicateTrack
		}
	}
	track := domain.NewTrack(l.lounge.ID, userID, in)
	l.tracks = append(l.tracks, track)
	out := copyTrack(track)
	l.broker.Publish(l.lounge.ID, SongAdded{Song: out})
	log.Debug().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Str("track", string(track.ID)).Msg("track added")
	return out, nil
}

func (l *loungeImpl) Vote(userID domain.UserID, trackID domain.TrackID, dir domain.Direction) (domain.Track, error) {
	if !dir.Valid() {
		return domain.Track{}, domain.ErrBadDirection
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.Track{}, domain.ErrLoungeNotFound
	}
	if !l.lounge.HasMember(userID) {
		return domain.Track{}, domain.ErrNotMember
	}
	track := l.findLocked(trackID)
	if track == nil {
		return domain.Track{}, domain.ErrTrackNotFound
	}

	// Toggle semantics against the voter's current direction:
	// none -> record, same -> retract, opposite -> flip.
	prev := -1
	for i, v := range track.Voters {
		if v.UserID == userID {
			prev = i
			break
		}
	}
	switch {
	case prev == -1:
		track.Voters = append(track.Voters, domain.Vote{UserID: userID, Direction: dir})
		track.Score += int(dir)
	case track.Voters[prev].Direction == dir:
		track.Voters = append(track.Voters[:prev], track.Voters[prev+1:]...)
		track.Score -= int(dir)
	default:
		track.Voters[prev].Direction = dir
		track.Score += 2 * int(dir)
	}

	out := copyTrack(track)
	l.broker.Publish(l.lounge.ID, SongVoted{Song: out, UserID: userID, Vote: dir})
	return out, nil
}

func (l *loungeImpl) RemoveTrack(userID domain.UserID, trackID domain.TrackID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.ErrLoungeNotFound
	}
	track := l.findLocked(trackID)
	if track == nil {
		return domain.ErrTrackNotFound
	}
	if track.AddedBy != userID && l.lounge.CreatorID != userID {
		return domain.ErrCannotRemove
	}
	for i, t := range l.tracks {
		if t.ID == trackID {
			l.tracks = append(l.tracks[:i], l.tracks[i+1:]...)
			break
		}
	}
	l.broker.Publish(l.lounge.ID, SongRemoved{SongID: trackID})
	log.Debug().Str("module", "core.lounge").Str("lounge", string(l.lounge.ID)).Str("track", string(trackID)).Msg("track removed")
	return nil
}

func (l *loungeImpl) MarkPlayed(trackID domain.TrackID) (domain.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lounge.Active {
		return domain.Track{}, domain.ErrLoungeNotFound
	}
	track := l.findLocked(trackID)
	if track == nil {
		return domain.Track{}, domain.ErrTrackNotFound
	}
	if !track.Played {
		track.Played = true
		out := copyTrack(track)
		l.broker.Publish(l.lounge.ID, SongPlayed{Song: out})
		return out, nil
	}
	return copyTrack(track), nil
}

func (l *loungeImpl) findLocked(trackID domain.TrackID) *domain.Track {
	for _, t := range l.tracks {
		if t.ID == trackID {
			return t
		}
	}
	return nil
}

func copyTrack(t *domain.Track) domain.Track {
	out := *t
	out.Voters = append([]domain.Vote(nil), t.Voters...)
	return out
}
