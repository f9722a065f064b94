package facture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// UseCase lecture des factures et registre des paiements.
type UseCase struct {
	txRunner    TxRunner
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	clientRepo  repository.ClientRepository
	now         func() time.Time
}

// NewUseCase construit le cas d'utilisation. now nil = time.Now.
func NewUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	now func() time.Time,
) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		clientRepo:  clientRepo,
		now:         now,
	}
}

// Get renvoie la facture, son client, ses lignes et l'état des règlements.
func (uc *UseCase) Get(ctx context.Context, userID, invoiceID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.GetEntity(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	paid, err := uc.paymentRepo.SumByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return dto.InvoiceFromEntity(inv, DeriveStatus(inv.Status, inv.TotalTTC, paid), paid, RemainingBalance(inv.TotalTTC, paid)), nil
}

// GetEntity renvoie la facture brute avec son client (rendu PDF).
func (uc *UseCase) GetEntity(ctx context.Context, userID, invoiceID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.Client == nil {
		if inv.Client, err = uc.clientRepo.GetByID(ctx, userID, inv.ClientID); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// List liste les factures avec leur statut dérivé.
func (uc *UseCase) List(ctx context.Context, userID string, page dto.PageRequest) ([]*dto.InvoiceResponse, error) {
	page.DefaultPage()
	list, err := uc.invoiceRepo.List(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		paid, err := uc.paymentRepo.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.InvoiceFromEntity(inv, DeriveStatus(inv.Status, inv.TotalTTC, paid), paid, RemainingBalance(inv.TotalTTC, paid)))
	}
	return out, nil
}

// RecordPayment ajoute un paiement daté du jour.
//   - montant <= 0 : ErrInvalidAmount
//   - facture annulée : ErrInvalidState
//   - montant > reste à payer : ErrExceedsBalance (une facture soldée n'accepte donc plus rien)
//
// La facture est verrouillée pendant la vérification : deux paiements concurrents ne
// peuvent pas dépasser le TTC.
func (uc *UseCase) RecordPayment(ctx context.Context, userID, invoiceID string, in dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if !entity.IsValidPaymentMode(in.Mode) {
		return nil, fmt.Errorf("%w: mode de paiement %q", domain.ErrInvalidInput, in.Mode)
	}
	if in.Intent != "" && in.Intent != dto.PaymentIntentDeposit && in.Intent != dto.PaymentIntentBalance {
		return nil, fmt.Errorf("%w: type de paiement %q", domain.ErrInvalidInput, in.Intent)
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if in.Amount == nil && in.Intent != dto.PaymentIntentBalance {
		return nil, domain.ErrInvalidAmount
	}

	var payment *entity.Payment
	err := uc.txRunner.RunPayments(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		inv, err := invoiceRepo.GetForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Status == entity.InvoiceStatusCancelled || inv.Status == entity.InvoiceStatusPaid {
			return fmt.Errorf("%w: facture %s", domain.ErrInvalidState, inv.Status)
		}
		paid, err := paymentRepo.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		remaining := RemainingBalance(inv.TotalTTC, paid)

		amount := remaining
		if in.Amount != nil {
			amount = *in.Amount
		}
		if !amount.IsPositive() && in.Amount == nil {
			return fmt.Errorf("%w: facture déjà soldée", domain.ErrExceedsBalance)
		}
		if amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: reste à payer %s", domain.ErrExceedsBalance, remaining.StringFixed(2))
		}

		now := uc.now()
		payment = &entity.Payment{
			ID:        uuid.New().String(),
			InvoiceID: inv.ID,
			UserID:    userID,
			Amount:    amount,
			PaidAt:    truncateDay(now),
			Mode:      in.Mode,
			Reference: in.Reference,
			Notes:     in.Notes,
			Kind:      entity.PaymentKindPayment,
			CreatedAt: now,
		}
		return paymentRepo.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	return dto.PaymentFromEntity(payment), nil
}

// RecordReversal annule un paiement par une écriture compensatoire de montant opposé.
// Le paiement d'origine reste dans le registre ; il ne peut être annulé qu'une fois.
func (uc *UseCase) RecordReversal(ctx context.Context, userID, invoiceID, paymentID string, in dto.ReversalRequest) (*dto.PaymentResponse, error) {
	var reversal *entity.Payment
	err := uc.txRunner.RunPayments(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		inv, err := invoiceRepo.GetForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		original, err := paymentRepo.GetByID(ctx, inv.ID, paymentID)
		if err != nil {
			return err
		}
		if original == nil {
			return fmt.Errorf("%w: paiement", domain.ErrNotFound)
		}
		if original.Kind == entity.PaymentKindReversal {
			return fmt.Errorf("%w: une annulation ne s'annule pas", domain.ErrInvalidState)
		}
		done, err := paymentRepo.HasReversal(ctx, original.ID)
		if err != nil {
			return err
		}
		if done {
			return fmt.Errorf("%w: paiement déjà annulé", domain.ErrConflict)
		}

		now := uc.now()
		reversal = &entity.Payment{
			ID:                uuid.New().String(),
			InvoiceID:         inv.ID,
			UserID:            userID,
			Amount:            original.Amount.Neg(),
			PaidAt:            truncateDay(now),
			Mode:              original.Mode,
			Reference:         original.Reference,
			Notes:             in.Notes,
			Kind:              entity.PaymentKindReversal,
			ReversesPaymentID: original.ID,
			CreatedAt:         now,
		}
		return paymentRepo.Create(ctx, reversal)
	})
	if err != nil {
		return nil, err
	}
	return dto.PaymentFromEntity(reversal), nil
}

// Summary état des règlements d'une facture.
func (uc *UseCase) Summary(ctx context.Context, userID, invoiceID string) (*dto.PaymentSummaryResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	payments, err := uc.paymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	paid := PaidTotal(payments)
	out := &dto.PaymentSummaryResponse{
		InvoiceID: inv.ID,
		TotalTTC:  inv.TotalTTC,
		Paid:      paid,
		Remaining: RemainingBalance(inv.TotalTTC, paid),
		Status:    DeriveStatus(inv.Status, inv.TotalTTC, paid),
		Payments:  make([]dto.PaymentResponse, 0, len(payments)),
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, *dto.PaymentFromEntity(p))
	}
	return out, nil
}

// RemainingBalance reste à payer d'une facture.
func (uc *UseCase) RemainingBalance(ctx context.Context, userID, invoiceID string) (decimal.Decimal, error) {
	s, err := uc.Summary(ctx, userID, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Remaining, nil
}

// Cancel annule une facture sans règlement. Une facture annulée n'accepte plus de paiement.
func (uc *UseCase) Cancel(ctx context.Context, userID, invoiceID string) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	var paid decimal.Decimal
	err := uc.txRunner.RunPayments(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		var err error
		inv, err = invoiceRepo.GetForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Status == entity.InvoiceStatusCancelled {
			return fmt.Errorf("%w: facture déjà annulée", domain.ErrInvalidState)
		}
		if paid, err = paymentRepo.SumByInvoice(ctx, inv.ID); err != nil {
			return err
		}
		if paid.IsPositive() {
			return fmt.Errorf("%w: annuler d'abord les paiements enregistrés", domain.ErrInvalidState)
		}
		inv.Status = entity.InvoiceStatusCancelled
		inv.UpdatedAt = uc.now()
		return invoiceRepo.UpdateStatus(ctx, inv.ID, inv.Status, inv.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return dto.InvoiceFromEntity(inv, inv.Status, paid, RemainingBalance(inv.TotalTTC, paid)), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
