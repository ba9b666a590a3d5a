package tgbot

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	botmodel "github.com/hailinhs/alumnisite/bot/model"
)

type subscriptions struct {
	mu sync.RWMutex
	m  map[botmodel.EventType]mapset.Set[int64]
}

func newSubs() *subscriptions {
	return &subscriptions{
		m: make(map[botmodel.EventType]mapset.Set[int64]),
	}
}

func (s *subscriptions) Add(t botmodel.EventType, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[t] == nil {
		s.m[t] = mapset.NewSet[int64]()
	}
	s.m[t].Add(chatID)
}

func (s *subscriptions) Remove(t botmodel.EventType, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[t] == nil {
		return
	}
	s.m[t].Remove(chatID)
}

func (s *subscriptions) GetChatIDs(t botmodel.EventType) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m[t] == nil {
		return nil
	}
	ids := s.m[t].ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Of lists the event types chatID is subscribed to.
func (s *subscriptions) Of(chatID int64) []botmodel.EventType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []botmodel.EventType
	for _, t := range botmodel.EventTypes {
		if s.m[t] != nil && s.m[t].Contains(chatID) {
			out = append(out, t)
		}
	}
	return out
}
