package memory

import (
	"sync"

	"github.com/adwski/chat-client/backend/model"
)

type AvatarResolver interface {
	Resolve(id string) string
}

// MemStore holds the chat session state: the last roster snapshot and the
// message history in arrival order.
type MemStore struct {
	mx       *sync.RWMutex
	avatars  AvatarResolver
	roster   []model.RosterEntry
	messages []model.ChatMessage
}

func NewMemStore(avatars AvatarResolver) *MemStore {
	return &MemStore{
		mx:      &sync.RWMutex{},
		avatars: avatars,
	}
}

func (ms *MemStore) ApplyFrame(f model.Frame) model.Change {
	switch f.Kind {
	case model.KindUsers:
		roster := make([]model.RosterEntry, 0, len(f.Users))
		for _, id := range f.Users {
			roster = append(roster, ms.entry(id))
		}
		ms.mx.Lock()
		ms.roster = roster
		ms.mx.Unlock()
		return model.StateChanged

	case model.KindMessage:
		if f.Message == nil {
			return model.Unchanged
		}
		ms.mx.Lock()
		ms.messages = append(ms.messages, model.ChatMessage{
			From: f.Message.From,
			Body: f.Message.Message,
		})
		ms.mx.Unlock()
		return model.StateChanged
	}
	return model.Unchanged
}

// Snapshot returns copies of the roster and history.
func (ms *MemStore) Snapshot() model.Snapshot {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	snap := model.Snapshot{
		Roster:   make([]model.RosterEntry, len(ms.roster)),
		Messages: make([]model.ChatMessage, len(ms.messages)),
	}
	copy(snap.Roster, ms.roster)
	copy(snap.Messages, ms.messages)
	return snap
}

// ResolveSender looks the user up in the roster. Users missing from the last
// snapshot get a synthesized entry which is not stored.
func (ms *MemStore) ResolveSender(id string) model.RosterEntry {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	for _, e := range ms.roster {
		if e.ID == id {
			return e
		}
	}
	return ms.entry(id)
}

func (ms *MemStore) entry(id string) model.RosterEntry {
	return model.RosterEntry{
		ID:        id,
		AvatarURL: ms.avatars.Resolve(id),
	}
}
