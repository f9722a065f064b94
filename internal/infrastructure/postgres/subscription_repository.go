package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var (
	_ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)
	_ repository.BillingEventRepository = (*BillingEventRepo)(nil)
)

// SubscriptionRepo abonnements (table abonnements, une ligne par utilisateur).
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

const subscriptionColumns = `
	id, user_id, statut, date_debut_essai, date_fin_essai, type_abonnement,
	date_debut_periode, date_fin_periode, stripe_customer_id, stripe_subscription_id,
	premium_actif, premium_type, premium_date_debut, premium_date_fin, premium_subscription_id,
	created_at, updated_at`

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var s entity.Subscription
	var customerID, subscriptionID, premiumSubscriptionID *string
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Main.Status, &s.Main.TrialStart, &s.Main.TrialEnd, &s.Main.PlanType,
		&s.Main.PeriodStart, &s.Main.PeriodEnd, &customerID, &subscriptionID,
		&s.Premium.Active, &s.Premium.PlanType, &s.Premium.PeriodStart, &s.Premium.PeriodEnd, &premiumSubscriptionID,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Main.CustomerID = derefStr(customerID)
	s.Main.SubscriptionID = derefStr(subscriptionID)
	s.Premium.SubscriptionID = derefStr(premiumSubscriptionID)
	return &s, nil
}

func (r *SubscriptionRepo) one(ctx context.Context, where string, arg any) (*entity.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, `SELECT`+subscriptionColumns+` FROM abonnements WHERE `+where, arg))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get abonnement: %w", err)
	}
	return s, nil
}

// GetByUserID lecture simple.
func (r *SubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	return r.one(ctx, `user_id = $1`, userID)
}

// LockByUserID lecture verrouillée par utilisateur.
func (r *SubscriptionRepo) LockByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	return r.one(ctx, `user_id = $1 FOR UPDATE`, userID)
}

// LockByCustomerID lecture verrouillée par client Stripe.
func (r *SubscriptionRepo) LockByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.one(ctx, `stripe_customer_id = $1 ORDER BY updated_at DESC LIMIT 1 FOR UPDATE`, customerID)
}

// LockBySubscriptionID cherche parmi les abonnements principal et premium.
func (r *SubscriptionRepo) LockBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	return r.one(ctx,
		`stripe_subscription_id = $1 OR premium_subscription_id = $1 ORDER BY updated_at DESC LIMIT 1 FOR UPDATE`,
		subscriptionID)
}

// Create insère l'abonnement ; sans effet (false) si l'utilisateur en a déjà un.
func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) (bool, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO abonnements (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO NOTHING`,
		s.ID, s.UserID, s.Main.Status, s.Main.TrialStart, s.Main.TrialEnd, s.Main.PlanType,
		s.Main.PeriodStart, s.Main.PeriodEnd, nullIfEmpty(s.Main.CustomerID), nullIfEmpty(s.Main.SubscriptionID),
		s.Premium.Active, s.Premium.PlanType, s.Premium.PeriodStart, s.Premium.PeriodEnd, nullIfEmpty(s.Premium.SubscriptionID),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert abonnement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save enregistre l'état complet de l'abonnement de l'utilisateur.
func (r *SubscriptionRepo) Save(ctx context.Context, s *entity.Subscription) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE abonnements
		SET statut = $2, date_debut_essai = $3, date_fin_essai = $4, type_abonnement = $5,
		    date_debut_periode = $6, date_fin_periode = $7, stripe_customer_id = $8, stripe_subscription_id = $9,
		    premium_actif = $10, premium_type = $11, premium_date_debut = $12, premium_date_fin = $13,
		    premium_subscription_id = $14, updated_at = $15
		WHERE user_id = $1`,
		s.UserID, s.Main.Status, s.Main.TrialStart, s.Main.TrialEnd, s.Main.PlanType,
		s.Main.PeriodStart, s.Main.PeriodEnd, nullIfEmpty(s.Main.CustomerID), nullIfEmpty(s.Main.SubscriptionID),
		s.Premium.Active, s.Premium.PlanType, s.Premium.PeriodStart, s.Premium.PeriodEnd,
		nullIfEmpty(s.Premium.SubscriptionID), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update abonnement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Événements de facturation ─────────────────────────────────────────────────

// BillingEventRepo journal des événements Stripe déjà appliqués.
type BillingEventRepo struct {
	q Querier
}

// NewBillingEventRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewBillingEventRepository(q Querier) *BillingEventRepo {
	return &BillingEventRepo{q: q}
}

// MarkProcessed enregistre l'événement ; false s'il l'était déjà. Dans la transaction de
// projection, deux livraisons simultanées du même événement se sérialisent sur la clé.
func (r *BillingEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO evenements_facturation (id, type, traite_le) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, eventID, eventType, at)
	if err != nil {
		return false, fmt.Errorf("journal événement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
