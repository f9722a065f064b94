package facture_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/memory"
)

const userID = "user-1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

var fixedNow = time.Date(2024, 4, 2, 15, 30, 0, 0, time.UTC)

// newLedger enregistre la facture FA-0001 (TTC 240) et renvoie le cas d'utilisation.
func newLedger(t *testing.T) (*facture.UseCase, *memory.Store, string) {
	t.Helper()
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: "client-1", UserID: userID, Name: "Mme Durand"})
	inv := &entity.Invoice{
		ID:       "inv-1",
		UserID:   userID,
		ClientID: "client-1",
		Number:   "FA-0001",
		IssuedAt: fixedNow,
		Status:   entity.InvoiceStatusUnpaid,
		TotalHT:  d("200"),
		TotalTVA: d("40"),
		TotalTTC: d("240"),
		Locked:   true,
	}
	require.NoError(t, store.Invoices().Create(context.Background(), inv))
	uc := facture.NewUseCase(store, store.Invoices(), store.Payments(), store.Clients(), func() time.Time { return fixedNow })
	return uc, store, inv.ID
}

func pay(s string) dto.RecordPaymentRequest {
	return dto.RecordPaymentRequest{Amount: amount(s), Mode: entity.PaymentModeVirement}
}

// ──────────────────────────────────────────────────────────────────────────────
// Registre
// ──────────────────────────────────────────────────────────────────────────────

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, entity.InvoiceStatusUnpaid, facture.DeriveStatus(entity.InvoiceStatusUnpaid, d("240"), d("0")))
	assert.Equal(t, entity.InvoiceStatusPartiallyPaid, facture.DeriveStatus(entity.InvoiceStatusUnpaid, d("240"), d("100")))
	assert.Equal(t, entity.InvoiceStatusPaid, facture.DeriveStatus(entity.InvoiceStatusUnpaid, d("240"), d("240")))
	assert.Equal(t, entity.InvoiceStatusCancelled, facture.DeriveStatus(entity.InvoiceStatusCancelled, d("240"), d("0")))
	assert.True(t, facture.RemainingBalance(d("240"), d("300")).IsZero())
}

// 100 puis 140 soldent la facture ; 0,01 de plus dépasse le reste à payer.
func TestRecordPayment_ScenarioFA0001(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	p, err := uc.RecordPayment(ctx, userID, invoiceID, pay("100"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), p.PaidAt)

	s, err := uc.Summary(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPartiallyPaid, s.Status)
	assert.True(t, s.Remaining.Equal(d("140")))

	_, err = uc.RecordPayment(ctx, userID, invoiceID, pay("140"))
	require.NoError(t, err)

	s, err = uc.Summary(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, s.Status)
	assert.True(t, s.Remaining.IsZero())
	assert.True(t, s.Paid.Equal(d("240")))
	assert.Len(t, s.Payments, 2)

	_, err = uc.RecordPayment(ctx, userID, invoiceID, pay("0.01"))
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)
}

func TestRecordPayment_Refus(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	_, err := uc.RecordPayment(ctx, userID, invoiceID, pay("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = uc.RecordPayment(ctx, userID, invoiceID, pay("-5"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = uc.RecordPayment(ctx, userID, invoiceID, pay("240.01"))
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)

	req := pay("10")
	req.Mode = "bitcoin"
	_, err = uc.RecordPayment(ctx, userID, invoiceID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RecordPayment(ctx, userID, "facture-inconnue", pay("10"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RecordPayment(ctx, "autre-utilisateur", invoiceID, pay("10"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordPayment_SoldeAutomatique(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	_, err := uc.RecordPayment(ctx, userID, invoiceID, pay("40"))
	require.NoError(t, err)

	p, err := uc.RecordPayment(ctx, userID, invoiceID, dto.RecordPaymentRequest{
		Mode:   entity.PaymentModeCheque,
		Intent: dto.PaymentIntentBalance,
	})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(d("200")))

	_, err = uc.RecordPayment(ctx, userID, invoiceID, dto.RecordPaymentRequest{
		Mode:   entity.PaymentModeCheque,
		Intent: dto.PaymentIntentBalance,
	})
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)
}

func TestRecordPayment_ConcurrentsSansDepassement(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.RecordPayment(ctx, userID, invoiceID, pay("50"))
		}()
	}
	wg.Wait()

	s, err := uc.Summary(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.True(t, s.Paid.Equal(d("200")), "4 paiements de 50 au plus : %s", s.Paid)
	assert.True(t, s.Paid.LessThanOrEqual(s.TotalTTC))
}

// ──────────────────────────────────────────────────────────────────────────────
// Annulations
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordReversal(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	p, err := uc.RecordPayment(ctx, userID, invoiceID, pay("240"))
	require.NoError(t, err)

	rev, err := uc.RecordReversal(ctx, userID, invoiceID, p.ID, dto.ReversalRequest{Notes: "chèque impayé"})
	require.NoError(t, err)
	assert.True(t, rev.Amount.Equal(d("-240")))
	assert.Equal(t, entity.PaymentKindReversal, rev.Kind)
	assert.Equal(t, p.ID, rev.ReversesPaymentID)

	s, err := uc.Summary(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusUnpaid, s.Status)
	assert.True(t, s.Remaining.Equal(d("240")))
	assert.Len(t, s.Payments, 2, "le paiement d'origine reste au registre")

	_, err = uc.RecordReversal(ctx, userID, invoiceID, p.ID, dto.ReversalRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.RecordReversal(ctx, userID, invoiceID, rev.ID, dto.ReversalRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = uc.RecordReversal(ctx, userID, invoiceID, "paiement-inconnu", dto.ReversalRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel(t *testing.T) {
	uc, _, invoiceID := newLedger(t)
	ctx := context.Background()

	p, err := uc.RecordPayment(ctx, userID, invoiceID, pay("10"))
	require.NoError(t, err)
	_, err = uc.Cancel(ctx, userID, invoiceID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "paiement enregistré")

	_, err = uc.RecordReversal(ctx, userID, invoiceID, p.ID, dto.ReversalRequest{})
	require.NoError(t, err)

	out, err := uc.Cancel(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, out.Status)

	_, err = uc.RecordPayment(ctx, userID, invoiceID, pay("10"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = uc.Cancel(ctx, userID, invoiceID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := uc.Get(ctx, userID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, got.Status)
	require.NotNil(t, got.Client)
}
