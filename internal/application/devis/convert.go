package devis

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

// ConvertToInvoice crée la facture verrouillée d'un devis accepté, dans une seule transaction :
//  1. verrouille le devis (SELECT ... FOR UPDATE) ; absent ou d'un autre utilisateur : ErrNotFound
//  2. statut différent de accepted : ErrInvalidState
//  3. facture déjà émise pour ce devis : ErrConflict
//  4. numéro DEV-xxxx -> FA-xxxx
//  5. insère la facture avec les totaux enregistrés du devis
//  6. copie les lignes sans lien catalogue
//  7. repasse le devis à accepted
//
// Les gardes 1 à 3 précèdent toute écriture ; la contrainte d'unicité sur devis_id
// couvre les appels concurrents.
func (uc *UseCase) ConvertToInvoice(ctx context.Context, userID, quoteID string) (*dto.InvoiceResponse, error) {
	delay := DefaultPaymentDelayDays
	if p, err := uc.profileRepo.GetProfile(ctx, userID); err != nil {
		return nil, err
	} else if p != nil && p.PaymentDelayDays > 0 {
		delay = p.PaymentDelayDays
	}

	var inv *entity.Invoice
	err := uc.txRunner.RunDocuments(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository) error {
		quote, err := quoteRepo.GetForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}
		if quote.Status != entity.QuoteStatusAccepted {
			return fmt.Errorf("%w: seul un devis accepté peut être facturé (statut %s)", domain.ErrInvalidState, quote.Status)
		}
		exists, err := invoiceRepo.ExistsForQuote(ctx, quote.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: une facture existe déjà pour le devis %s", domain.ErrConflict, quote.Number)
		}

		now := time.Now()
		issued := truncateDay(now)
		due := issued.AddDate(0, 0, delay)
		inv = &entity.Invoice{
			ID:        uuid.New().String(),
			UserID:    userID,
			ClientID:  quote.ClientID,
			QuoteID:   quote.ID,
			Number:    InvoiceNumberFor(quote.Number, quote.ID),
			IssuedAt:  issued,
			DueDate:   &due,
			Status:    entity.InvoiceStatusUnpaid,
			TotalHT:   quote.TotalHT,
			TotalTVA:  quote.TotalTVA,
			TotalTTC:  quote.TotalTTC,
			Notes:     quote.Notes,
			Locked:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, l := range quote.Lines {
			line := entity.InvoiceLineFromQuote(inv.ID, l)
			line.ID = uuid.New().String()
			inv.Lines = append(inv.Lines, line)
		}
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		return quoteRepo.UpdateStatus(ctx, quote.ID, entity.QuoteStatusAccepted, now)
	})
	if err != nil {
		return nil, err
	}

	client, err := uc.clientRepo.GetByID(ctx, userID, inv.ClientID)
	if err != nil {
		return nil, err
	}
	inv.Client = client
	return dto.InvoiceFromEntity(inv, inv.Status, decimal.Zero, inv.TotalTTC), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
