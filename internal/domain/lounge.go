package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	LoungeID   string
	LoungeCode string
)

const (
	DefaultCapacity  = 50
	MinCapacity      = 2
	MaxLoungeNameLen = 80
)

// Lounge is a named, code-addressable collaborative session.
// Member order is join order; index 0 after a creator leave is the
// transfer target. Mutation happens only inside core under the
// per-lounge lock, never here.
type Lounge struct {
	ID        LoungeID   `json:"id"`
	Name      string     `json:"name"`
	Code      LoungeCode `json:"code"`
	CreatorID UserID     `json:"creatorId"`
	MemberIDs []UserID   `json:"memberIds"`
	Capacity  int        `json:"maxMembers"`
	Active    bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewLounge validates name and capacity; the creator is always the first
// member. The code is assigned by the manager, which owns uniqueness.
func NewLounge(name string, creatorID UserID, capacity int) (*Lounge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxLoungeNameLen {
		name = name[:MaxLoungeNameLen]
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < MinCapacity {
		return nil, ErrCapacityTooSmall
	}
	return &Lounge{
		ID:        LoungeID(uuid.NewString()),
		Name:      name,
		CreatorID: creatorID,
		MemberIDs: []UserID{creatorID},
		Capacity:  capacity,
		Active:    true,
		CreatedAt: time.Now(),
	}, nil
}

func (l *Lounge) HasMember(id UserID) bool {
	for _, m := range l.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}
