package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/inventory"
)

// ── Devis ─────────────────────────────────────────────────────────────────────

type quoteRepo struct {
	s  *Store
	tx bool // obtenu d'un Run* : le verrou de transaction est déjà pris
}

func (r *quoteRepo) Create(_ context.Context, q *entity.Quote) error {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.data.quotes {
		if other.UserID == q.UserID && other.Number == q.Number {
			return fmt.Errorf("%w: numéro %s déjà attribué", domain.ErrConflict, q.Number)
		}
	}
	r.s.data.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (r *quoteRepo) GetByID(_ context.Context, userID, id string) (*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.data.quotes[id]
	if !ok || q.UserID != userID {
		return nil, nil
	}
	out := cloneQuote(q)
	sort.SliceStable(out.Lines, func(i, j int) bool { return out.Lines[i].Position < out.Lines[j].Position })
	return out, nil
}

func (r *quoteRepo) GetForUpdate(ctx context.Context, userID, id string) (*entity.Quote, error) {
	return r.GetByID(ctx, userID, id)
}

func (r *quoteRepo) List(_ context.Context, userID string, limit, offset int) ([]*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Quote
	for _, q := range r.s.data.quotes {
		if q.UserID == userID {
			list = append(list, cloneQuote(q))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Number > list[j].Number
	})
	return paginate(list, limit, offset), nil
}

func (r *quoteRepo) Update(_ context.Context, q *entity.Quote) error {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.quotes[q.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (r *quoteRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.data.quotes[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.Status = status
	q.UpdatedAt = at
	return nil
}

// Delete supprime le devis ; les factures qui le référencent perdent ce lien.
func (r *quoteRepo) Delete(_ context.Context, userID, id string) error {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.data.quotes[id]
	if !ok || q.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.s.data.quotes, id)
	for _, inv := range r.s.data.invoices {
		if inv.QuoteID == id {
			inv.QuoteID = ""
		}
	}
	return nil
}

func (r *quoteRepo) NextSequence(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.nextLocked(userID), nil
}

func (r *quoteRepo) AllocateSequence(_ context.Context, userID string) (int, error) {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seq := r.nextLocked(userID)
	r.s.data.quoteSeq[userID] = seq
	return seq, nil
}

// nextLocked : max(compteur, plus grand DEV-n existant) + 1. Appelé sous r.s.mu.
func (r *quoteRepo) nextLocked(userID string) int {
	highest := r.s.data.quoteSeq[userID]
	for _, q := range r.s.data.quotes {
		if q.UserID != userID || !strings.HasPrefix(q.Number, entity.QuoteNumberPrefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(q.Number, entity.QuoteNumberPrefix)); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

type subscriptionRepo struct {
	s  *Store
	tx bool
}

func (r *subscriptionRepo) GetByUserID(_ context.Context, userID string) (*entity.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sub, ok := r.s.data.subs[userID]; ok {
		return cloneSubscription(sub), nil
	}
	return nil, nil
}

func (r *subscriptionRepo) LockByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *subscriptionRepo) LockByCustomerID(_ context.Context, customerID string) (*entity.Subscription, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.find(func(sub *entity.Subscription) bool { return sub.Main.CustomerID == customerID }), nil
}

func (r *subscriptionRepo) LockBySubscriptionID(_ context.Context, subscriptionID string) (*entity.Subscription, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	return r.find(func(sub *entity.Subscription) bool {
		return sub.Main.SubscriptionID == subscriptionID || sub.Premium.SubscriptionID == subscriptionID
	}), nil
}

func (r *subscriptionRepo) find(match func(*entity.Subscription) bool) *entity.Subscription {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.data.subs {
		if match(sub) {
			return cloneSubscription(sub)
		}
	}
	return nil
}

func (r *subscriptionRepo) Create(_ context.Context, sub *entity.Subscription) (bool, error) {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.subs[sub.UserID]; ok {
		return false, nil
	}
	r.s.data.subs[sub.UserID] = cloneSubscription(sub)
	return true, nil
}

func (r *subscriptionRepo) Save(_ context.Context, sub *entity.Subscription) error {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.subs[sub.UserID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.subs[sub.UserID] = cloneSubscription(sub)
	return nil
}

type eventRepo struct {
	s  *Store
	tx bool
}

func (r *eventRepo) MarkProcessed(_ context.Context, eventID, eventType string, _ time.Time) (bool, error) {
	defer r.s.writing(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.events[eventID]; ok {
		return false, nil
	}
	r.s.data.events[eventID] = eventType
	return true, nil
}

// ── Clients et profil ─────────────────────────────────────────────────────────

type clientRepo struct{ s *Store }

func (r *clientRepo) GetByID(_ context.Context, userID, id string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.clients[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type profileRepo struct{ s *Store }

func (r *profileRepo) GetProfile(_ context.Context, userID string) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.data.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *profileRepo) GetSettings(_ context.Context, userID string) (*entity.CompanySettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cs, ok := r.s.data.settings[userID]; ok {
		cp := *cs
		return &cp, nil
	}
	return nil, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
