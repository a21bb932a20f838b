package snapshot

import (
	"maps"
	"slices"
	"sync"

	"fundguard/internal/chain"
	"fundguard/internal/models"

	"github.com/google/uuid"
)

type Snapshot struct {
	Version uint64                       `json:"-"`
	User    models.User                  `json:"user"`
	Wallets []models.Wallet              `json:"wallets"`
	Orders  []models.Order               `json:"orders"`
	Drafts  map[string]models.DraftOrder `json:"drafts"`
}

func (s Snapshot) Wallet(id string) (models.Wallet, bool) {
	for _, w := range s.Wallets {
		if w.ID == id {
			return w, true
		}
	}
	return models.Wallet{}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Version: s.Version,
		User:    s.User,
		Wallets: make([]models.Wallet, len(s.Wallets)),
		Orders:  make([]models.Order, len(s.Orders)),
		Drafts:  make(map[string]models.DraftOrder, len(s.Drafts)),
	}
	for i, w := range s.Wallets {
		w.ChainIDs = slices.Clone(w.ChainIDs)
		out.Wallets[i] = w
	}
	for i, o := range s.Orders {
		out.Orders[i] = cloneOrder(o)
	}
	for slot, d := range s.Drafts {
		if d.Owner != nil {
			owner := *d.Owner
			d.Owner = &owner
		}
		out.Drafts[slot] = d
	}
	return out
}

func cloneOrder(o models.Order) models.Order {
	if o.Owner != nil {
		owner := *o.Owner
		o.Owner = &owner
	}
	return o
}

// Store хранит текущий снапшот. Движок только читает его через Current.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	updates chan uint64
}

func NewStore() *Store {
	return &Store{
		snap:    Snapshot{Drafts: map[string]models.DraftOrder{}},
		updates: make(chan uint64, 1),
	}
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version
}

// Updates сигналит о новой версии. Сигналы склеиваются, актуальное состояние берётся из Current.
func (s *Store) Updates() <-chan uint64 {
	return s.updates
}

func (s *Store) Load(snap Snapshot) {
	s.mutate(func(cur *Snapshot) {
		next := snap.clone()
		next.Version = cur.Version
		*cur = next
	})
}

func (s *Store) SetUser(user models.User) {
	s.mutate(func(cur *Snapshot) {
		cur.User = user
	})
}

func (s *Store) SetWallets(wallets []models.Wallet) {
	s.mutate(func(cur *Snapshot) {
		cur.Wallets = slices.Clone(wallets)
	})
}

func (s *Store) ReplaceOrders(orders []models.Order) {
	s.mutate(func(cur *Snapshot) {
		cur.Orders = make([]models.Order, len(orders))
		for i, o := range orders {
			cur.Orders[i] = cloneOrder(o)
		}
	})
}

func (s *Store) UpsertOrder(order models.Order) {
	s.mutate(func(cur *Snapshot) {
		order = cloneOrder(order)
		for i := range cur.Orders {
			if cur.Orders[i].ID == order.ID {
				cur.Orders[i] = order
				return
			}
		}
		cur.Orders = append(cur.Orders, order)
	})
}

// PutDraft кладёт черновик в слот. Пустой слот получает новый идентификатор.
func (s *Store) PutDraft(draft models.DraftOrder) string {
	if draft.SlotID == "" {
		draft.SlotID = uuid.NewString()
	}
	s.mutate(func(cur *Snapshot) {
		if cur.Drafts == nil {
			cur.Drafts = map[string]models.DraftOrder{}
		}
		cur.Drafts[draft.SlotID] = draft
	})
	return draft.SlotID
}

func (s *Store) RemoveDraft(slotID string) bool {
	s.mu.Lock()
	_, ok := s.snap.Drafts[slotID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.snap.Drafts, slotID)
	s.snap.Version++
	version := s.snap.Version
	s.mu.Unlock()
	s.notify(version)
	return true
}

func (s *Store) ClearDrafts() {
	s.mutate(func(cur *Snapshot) {
		cur.Drafts = map[string]models.DraftOrder{}
	})
}

func (s *Store) Apply(ev chain.Event) {
	switch ev.Type {
	case chain.EventTypeOrder:
		if ev.Order != nil {
			s.UpsertOrder(*ev.Order)
		}
	case chain.EventTypeDraft:
		if ev.Draft == nil {
			return
		}
		if ev.Removed {
			s.RemoveDraft(ev.Draft.SlotID)
			return
		}
		s.PutDraft(*ev.Draft)
	}
}

func (s *Store) DraftSlots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.snap.Drafts))
}

func (s *Store) mutate(fn func(cur *Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.Version++
	version := s.snap.Version
	s.mu.Unlock()
	s.notify(version)
}

func (s *Store) notify(version uint64) {
	select {
	case s.updates <- version:
	default:
	}
}
