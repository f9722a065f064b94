// Package memory implémente les dépôts et les TxRunner en mémoire.
// Utilisé par les tests et par DB_DRIVER=memory (démonstration sans base).
//
// Les transactions sont sérialisées : une seule à la fois, ce qui donne les mêmes
// garanties que les verrous de ligne PostgreSQL. Une erreur renvoyée par la fonction
// transactionnelle restaure l'état d'avant la transaction. Les écritures faites hors
// transaction attendent la fin de la transaction en cours : un retour arrière ne peut
// donc pas les effacer.
package memory

import (
	"context"
	"sync"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// Store état partagé par tous les dépôts.
type Store struct {
	txMu sync.Mutex // une transaction à la fois
	mu   sync.Mutex // accès aux données

	data state
}

type state struct {
	quotes    map[string]*entity.Quote
	invoices  map[string]*entity.Invoice
	payments  []*entity.Payment
	products  map[string]*entity.Product
	movements []*entity.StockMovement
	subs      map[string]*entity.Subscription // par user_id
	events    map[string]string
	clients   map[string]*entity.Client
	profiles  map[string]*entity.Profile
	settings  map[string]*entity.CompanySettings
	quoteSeq  map[string]int // dernier numéro de devis attribué, par user_id
}

// NewStore crée un magasin vide.
func NewStore() *Store {
	return &Store{data: state{
		quotes:   map[string]*entity.Quote{},
		invoices: map[string]*entity.Invoice{},
		products: map[string]*entity.Product{},
		subs:     map[string]*entity.Subscription{},
		events:   map[string]string{},
		clients:  map[string]*entity.Client{},
		profiles: map[string]*entity.Profile{},
		settings: map[string]*entity.CompanySettings{},
		quoteSeq: map[string]int{},
	}}
}

// ── Dépôts ────────────────────────────────────────────────────────────────────

func (s *Store) Quotes() repository.QuoteRepository { return &quoteRepo{s: s} }
func (s *Store) Invoices() repository.InvoiceRepository { return &invoiceRepo{s: s} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepo{s: s} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }
func (s *Store) Movements() repository.StockMovementRepository { return &movementRepo{s: s} }
func (s *Store) Subscriptions() repository.SubscriptionRepository { return &subscriptionRepo{s: s} }
func (s *Store) BillingEvents() repository.BillingEventRepository { return &eventRepo{s: s} }
func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s: s} }
func (s *Store) Profiles() repository.ProfileRepository { return &profileRepo{s: s} }

// ── Transactions ──────────────────────────────────────────────────────────────

func (s *Store) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// writing prend le verrou de transaction pour une écriture hors transaction.
func (s *Store) writing(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// RunDocuments implémente devis.TxRunner.
func (s *Store) RunDocuments(ctx context.Context, fn func(repository.QuoteRepository, repository.InvoiceRepository) error) error {
	return s.run(ctx, func() error { return fn(&quoteRepo{s: s, tx: true}, &invoiceRepo{s: s, tx: true}) })
}

// RunPayments implémente facture.TxRunner.
func (s *Store) RunPayments(ctx context.Context, fn func(repository.InvoiceRepository, repository.PaymentRepository) error) error {
	return s.run(ctx, func() error { return fn(&invoiceRepo{s: s, tx: true}, &paymentRepo{s: s, tx: true}) })
}

// RunStock implémente stock.TxRunner.
func (s *Store) RunStock(ctx context.Context, fn func(repository.ProductRepository, repository.StockMovementRepository) error) error {
	return s.run(ctx, func() error { return fn(&productRepo{s: s, tx: true}, &movementRepo{s: s, tx: true}) })
}

// RunSubscriptions implémente abonnement.TxRunner.
func (s *Store) RunSubscriptions(ctx context.Context, fn func(repository.SubscriptionRepository, repository.BillingEventRepository) error) error {
	return s.run(ctx, func() error { return fn(&subscriptionRepo{s: s, tx: true}, &eventRepo{s: s, tx: true}) })
}

// ── Données de départ ─────────────────────────────────────────────────────────

// AddClient enregistre un client (tests, démonstration).
func (s *Store) AddClient(c *entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.data.clients[c.ID] = &cp
}

// AddProduct enregistre un produit.
func (s *Store) AddProduct(p *entity.Product) {
	defer s.writing(false)()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.data.products[p.ID] = &cp
}

// SetProfile enregistre le profil émetteur.
func (s *Store) SetProfile(p *entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.data.profiles[p.UserID] = &cp
}

// SetSettings enregistre les réglages entreprise.
func (s *Store) SetSettings(cs *entity.CompanySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cs
	s.data.settings[cs.UserID] = &cp
}

// PutSubscription remplace l'abonnement de l'utilisateur.
func (s *Store) PutSubscription(sub *entity.Subscription) {
	defer s.writing(false)()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.subs[sub.UserID] = cloneSubscription(sub)
}

// InvoiceCount nombre de factures enregistrées.
func (s *Store) InvoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.invoices)
}

// ── Copies ────────────────────────────────────────────────────────────────────

func (st state) clone() state {
	out := state{
		quotes:    make(map[string]*entity.Quote, len(st.quotes)),
		invoices:  make(map[string]*entity.Invoice, len(st.invoices)),
		payments:  make([]*entity.Payment, len(st.payments)),
		products:  make(map[string]*entity.Product, len(st.products)),
		movements: make([]*entity.StockMovement, len(st.movements)),
		subs:      make(map[string]*entity.Subscription, len(st.subs)),
		events:    make(map[string]string, len(st.events)),
		clients:   st.clients,
		profiles:  st.profiles,
		settings:  st.settings,
		quoteSeq:  make(map[string]int, len(st.quoteSeq)),
	}
	for k, v := range st.quotes {
		out.quotes[k] = cloneQuote(v)
	}
	for k, v := range st.invoices {
		out.invoices[k] = cloneInvoice(v)
	}
	for i, v := range st.payments {
		cp := *v
		out.payments[i] = &cp
	}
	for k, v := range st.products {
		cp := *v
		out.products[k] = &cp
	}
	for i, v := range st.movements {
		cp := *v
		out.movements[i] = &cp
	}
	for k, v := range st.subs {
		out.subs[k] = cloneSubscription(v)
	}
	for k, v := range st.events {
		out.events[k] = v
	}
	for k, v := range st.quoteSeq {
		out.quoteSeq[k] = v
	}
	return out
}

func cloneQuote(q *entity.Quote) *entity.Quote {
	cp := *q
	cp.Lines = make([]*entity.QuoteLine, len(q.Lines))
	for i, l := range q.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	cp.Client = nil
	cp.Lines = make([]*entity.InvoiceLine, len(inv.Lines))
	for i, l := range inv.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func cloneSubscription(sub *entity.Subscription) *entity.Subscription {
	cp := *sub
	return &cp
}
