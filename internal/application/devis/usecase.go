package devis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// DefaultPaymentDelayDays échéance par défaut d'une facture.
const DefaultPaymentDelayDays = 30

// UseCase cycle de vie des devis et conversion en facture.
type UseCase struct {
	txRunner    TxRunner
	quoteRepo   repository.QuoteRepository
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	profileRepo repository.ProfileRepository
}

// NewUseCase construit le cas d'utilisation.
func NewUseCase(
	txRunner TxRunner,
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	profileRepo repository.ProfileRepository,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		quoteRepo:   quoteRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		profileRepo: profileRepo,
	}
}

// Create enregistre un devis brouillon avec le prochain numéro de l'utilisateur.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	if err := uc.checkClient(ctx, userID, in.ClientID); err != nil {
		return nil, err
	}
	lines, err := buildLines(in.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quote := &entity.Quote{
		ID:              uuid.New().String(),
		UserID:          userID,
		ClientID:        in.ClientID,
		Status:          entity.QuoteStatusDraft,
		ValidUntil:      in.ValidUntil,
		Notes:           in.Notes,
		WorkDescription: in.WorkDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	setLines(quote, lines)

	err = uc.txRunner.RunDocuments(ctx, func(quoteRepo repository.QuoteRepository, _ repository.InvoiceRepository) error {
		seq, err := quoteRepo.AllocateSequence(ctx, userID)
		if err != nil {
			return err
		}
		quote.Number = QuoteNumber(seq)
		return quoteRepo.Create(ctx, quote)
	})
	if err != nil {
		return nil, err
	}
	return dto.QuoteFromEntity(quote, false), nil
}

// Update remplace client, lignes, notes et validité, puis recalcule les totaux.
// Refusé dès qu'une facture a été émise à partir du devis.
func (uc *UseCase) Update(ctx context.Context, userID, quoteID string, in dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	if err := uc.checkClient(ctx, userID, in.ClientID); err != nil {
		return nil, err
	}
	lines, err := buildLines(in.Lines)
	if err != nil {
		return nil, err
	}

	var quote *entity.Quote
	err = uc.txRunner.RunDocuments(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository) error {
		q, err := quoteRepo.GetForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if q == nil {
			return domain.ErrNotFound
		}
		invoiced, err := invoiceRepo.ExistsForQuote(ctx, q.ID)
		if err != nil {
			return err
		}
		if invoiced {
			return fmt.Errorf("%w: devis déjà facturé", domain.ErrInvalidState)
		}
		q.ClientID = in.ClientID
		q.ValidUntil = in.ValidUntil
		q.Notes = in.Notes
		q.WorkDescription = in.WorkDescription
		q.UpdatedAt = time.Now()
		setLines(q, lines)
		quote = q
		return quoteRepo.Update(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return dto.QuoteFromEntity(quote, false), nil
}

// SetStatus change le statut. Toute transition vers un statut différent est permise,
// y compris pour un devis déjà facturé.
func (uc *UseCase) SetStatus(ctx context.Context, userID, quoteID, status string) (*dto.QuoteResponse, error) {
	if !entity.IsValidQuoteStatus(status) {
		return nil, fmt.Errorf("%w: statut %q", domain.ErrInvalidInput, status)
	}
	var quote *entity.Quote
	var invoiced bool
	err := uc.txRunner.RunDocuments(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository) error {
		q, err := quoteRepo.GetForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if q == nil {
			return domain.ErrNotFound
		}
		if q.Status == status {
			return fmt.Errorf("%w: le devis est déjà %s", domain.ErrInvalidState, status)
		}
		if invoiced, err = invoiceRepo.ExistsForQuote(ctx, q.ID); err != nil {
			return err
		}
		q.Status = status
		q.UpdatedAt = time.Now()
		quote = q
		return quoteRepo.UpdateStatus(ctx, q.ID, status, q.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return dto.QuoteFromEntity(quote, invoiced), nil
}

// Get renvoie le devis et ses lignes.
func (uc *UseCase) Get(ctx context.Context, userID, quoteID string) (*dto.QuoteResponse, error) {
	q, err := uc.quoteRepo.GetByID(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	invoiced, err := uc.invoiceRepo.ExistsForQuote(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return dto.QuoteFromEntity(q, invoiced), nil
}

// List liste les devis de l'utilisateur, du plus récent au plus ancien.
func (uc *UseCase) List(ctx context.Context, userID string, page dto.PageRequest) ([]*dto.QuoteResponse, error) {
	page.DefaultPage()
	list, err := uc.quoteRepo.List(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.QuoteResponse, 0, len(list))
	for _, q := range list {
		invoiced, err := uc.invoiceRepo.ExistsForQuote(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.QuoteFromEntity(q, invoiced))
	}
	return out, nil
}

// Delete supprime le devis et ses lignes ; une facture issue du devis est conservée.
func (uc *UseCase) Delete(ctx context.Context, userID, quoteID string) error {
	return uc.quoteRepo.Delete(ctx, userID, quoteID)
}

// NextNumber aperçu du prochain numéro (non réservé).
func (uc *UseCase) NextNumber(ctx context.Context, userID string) (*dto.NextNumberResponse, error) {
	seq, err := uc.quoteRepo.NextSequence(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.NextNumberResponse{Number: QuoteNumber(seq)}, nil
}

func (uc *UseCase) checkClient(ctx context.Context, userID, clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("%w: client obligatoire", domain.ErrInvalidInput)
	}
	c, err := uc.clientRepo.GetByID(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: client", domain.ErrNotFound)
	}
	return nil
}

// buildLines valide les lignes saisies : désignation, quantité >= 0, prix >= 0, taux autorisé.
func buildLines(in []dto.QuoteLineRequest) ([]*entity.QuoteLine, error) {
	lines := make([]*entity.QuoteLine, 0, len(in))
	for i, l := range in {
		if strings.TrimSpace(l.Designation) == "" {
			return nil, fmt.Errorf("%w: ligne %d sans désignation", domain.ErrInvalidInput, i+1)
		}
		if l.Quantity.IsNegative() || l.UnitPriceHT.IsNegative() {
			return nil, fmt.Errorf("%w: ligne %d quantité ou prix négatif", domain.ErrInvalidInput, i+1)
		}
		if !money.IsAllowedTaxRate(l.TaxRate) {
			return nil, fmt.Errorf("%w: ligne %d taux de TVA %s", domain.ErrInvalidInput, i+1, l.TaxRate)
		}
		lines = append(lines, &entity.QuoteLine{
			ID:            uuid.New().String(),
			ProductID:     l.ProductID,
			SupplierID:    l.SupplierID,
			Designation:   strings.TrimSpace(l.Designation),
			Reference:     l.Reference,
			Unit:          l.Unit,
			Quantity:      l.Quantity,
			UnitPriceHT:   l.UnitPriceHT,
			TaxRate:       l.TaxRate,
			MarginPercent: l.MarginPercent,
			Position:      i,
		})
	}
	return lines, nil
}

// setLines attache les lignes et recalcule les totaux du devis.
func setLines(q *entity.Quote, lines []*entity.QuoteLine) {
	ml := make([]money.Line, 0, len(lines))
	for _, l := range lines {
		l.QuoteID = q.ID
		ml = append(ml, money.Line{Quantity: l.Quantity, UnitPriceHT: l.UnitPriceHT, TaxRate: l.TaxRate})
	}
	t := money.DocumentTotals(ml)
	q.Lines = lines
	q.TotalHT, q.TotalTVA, q.TotalTTC = t.HT, t.TVA, t.TTC
}
