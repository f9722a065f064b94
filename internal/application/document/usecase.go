package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entitlement"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// Renderer met en page un document (PDF).
type Renderer interface {
	Render(doc *Document) ([]byte, error)
}

// EntitlementReader droits de l'utilisateur, pour le bandeau d'essai.
type EntitlementReader interface {
	Get(ctx context.Context, userID string) (entitlement.Entitlements, error)
}

// Output fichier produit.
type Output struct {
	Filename string
	Content  []byte
}

// RenderUseCase produit les PDF des devis et factures.
type RenderUseCase struct {
	renderer     Renderer
	quoteRepo    repository.QuoteRepository
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	profileRepo  repository.ProfileRepository
	entitlements EntitlementReader
	now          func() time.Time
}

func NewRenderUseCase(
	renderer Renderer,
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	profileRepo repository.ProfileRepository,
	entitlements EntitlementReader,
	now func() time.Time,
) *RenderUseCase {
	if now == nil {
		now = time.Now
	}
	return &RenderUseCase{
		renderer:     renderer,
		quoteRepo:    quoteRepo,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		profileRepo:  profileRepo,
		entitlements: entitlements,
		now:          now,
	}
}

// FromPayload rend un document entièrement décrit par la requête.
func (uc *RenderUseCase) FromPayload(_ context.Context, req dto.RenderRequest) (*Output, error) {
	in := Input{
		Type:            req.Type,
		Number:          req.Document.Number,
		Notes:           req.Document.Notes,
		WorkDescription: req.Document.WorkDescription,
		Profile:         profileFromRequest(req.Profile),
		Client:          clientFromRequest(req.Client),
		TrialMode:       req.IsTrialMode,
	}
	var err error
	if in.Date, err = parseDate(req.Document.Date, uc.now()); err != nil {
		return nil, err
	}
	if in.ValidUntil, err = parseOptionalDate(req.Document.ValidUntil); err != nil {
		return nil, err
	}
	if in.DueDate, err = parseOptionalDate(req.Document.DueDate); err != nil {
		return nil, err
	}
	if s := req.Settings; s != nil {
		in.Settings = &entity.CompanySettings{
			DefaultTaxRate: s.DefaultTaxRate,
			LegalMentions:  s.LegalMentions,
			FooterText:     s.FooterText,
		}
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, Line{
			Designation: l.Designation,
			Reference:   l.Reference,
			Unit:        l.Unit,
			Quantity:    l.Quantity.Decimal,
			UnitPriceHT: l.UnitPriceHT.Decimal,
			TaxRate:     l.TaxRate.Decimal,
		})
	}
	return uc.render(in)
}

// RenderQuote rend un devis enregistré.
func (uc *RenderUseCase) RenderQuote(ctx context.Context, userID, quoteID string) (*Output, error) {
	q, err := uc.quoteRepo.GetByID(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	in, err := uc.stored(ctx, userID, q.ClientID)
	if err != nil {
		return nil, err
	}
	in.Type = TypeDevis
	in.Number = q.Number
	in.Date = q.CreatedAt
	in.ValidUntil = q.ValidUntil
	in.Notes = q.Notes
	in.WorkDescription = q.WorkDescription
	for _, l := range q.Lines {
		in.Lines = append(in.Lines, Line{
			Designation: l.Designation,
			Reference:   l.Reference,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPriceHT: l.UnitPriceHT,
			TaxRate:     l.TaxRate,
		})
	}
	return uc.render(in)
}

// RenderInvoice rend une facture enregistrée.
func (uc *RenderUseCase) RenderInvoice(ctx context.Context, userID, invoiceID string) (*Output, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	in, err := uc.stored(ctx, userID, inv.ClientID)
	if err != nil {
		return nil, err
	}
	in.Type = TypeFacture
	in.Number = inv.Number
	in.Date = inv.IssuedAt
	in.DueDate = inv.DueDate
	in.Notes = inv.Notes
	for _, l := range inv.Lines {
		in.Lines = append(in.Lines, Line{
			Designation: l.Designation,
			Reference:   l.Reference,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPriceHT: l.UnitPriceHT,
			TaxRate:     l.TaxRate,
		})
	}
	return uc.render(in)
}

// stored charge l'émetteur, les réglages, le client et le mode essai d'un document enregistré.
func (uc *RenderUseCase) stored(ctx context.Context, userID, clientID string) (Input, error) {
	var in Input
	profile, err := uc.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return in, err
	}
	if profile != nil {
		in.Profile = *profile
	}
	if in.Settings, err = uc.profileRepo.GetSettings(ctx, userID); err != nil {
		return in, err
	}
	if clientID != "" {
		client, err := uc.clientRepo.GetByID(ctx, userID, clientID)
		if err != nil {
			return in, err
		}
		if client != nil {
			in.Client = *client
		}
	}
	if uc.entitlements != nil {
		ent, err := uc.entitlements.Get(ctx, userID)
		if err != nil {
			return in, err
		}
		in.TrialMode = ent.TrialActive && !ent.MainSubscriptionActive
	}
	return in, nil
}

func (uc *RenderUseCase) render(in Input) (*Output, error) {
	doc, err := Build(in)
	if err != nil {
		return nil, err
	}
	content, err := uc.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("rendu du document %s: %w", doc.Number, err)
	}
	return &Output{Filename: doc.Filename(), Content: content}, nil
}

// ── Conversion de la requête ──────────────────────────────────────────────────

func profileFromRequest(p dto.RenderProfile) entity.Profile {
	return entity.Profile{
		CompanyName:          p.CompanyName,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		LegalForm:            p.LegalForm,
		SIRET:                p.SIRET,
		TVANumber:            p.TVANumber,
		Address:              p.Address,
		PostalCode:           p.PostalCode,
		City:                 p.City,
		Phone:                p.Phone,
		Email:                p.Email,
		DefaultTaxRate:       p.DefaultTaxRate,
		TVAExempt:            p.TVAExempt,
		PaymentConditions:    p.PaymentConditions,
		PaymentDelay:         p.PaymentDelay,
		LatePenaltyRate:      p.LatePenaltyRate,
		RecoveryIndemnity:    p.RecoveryIndemnity,
		EarlyPaymentDiscount: p.EarlyPaymentDiscount,
		QuoteValidity:        p.QuoteValidity,
		BankName:             p.BankName,
		IBAN:                 p.IBAN,
		BIC:                  p.BIC,
	}
}

func clientFromRequest(c dto.RenderClient) entity.Client {
	return entity.Client{
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		PostalCode:  c.PostalCode,
		City:        c.City,
		SIRET:       c.SIRET,
		TVANumber:   c.TVANumber,
	}
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	t, err := parseOptionalDate(s)
	if err != nil || t == nil {
		return fallback, err
	}
	return *t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
}
