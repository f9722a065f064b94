package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var (
	_ repository.ClientRepository  = (*ClientRepo)(nil)
	_ repository.ProfileRepository = (*ProfileRepo)(nil)
)

// ClientRepo lecture des clients (table clients).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construit l'adaptateur.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID client de l'utilisateur ; (nil, nil) s'il n'existe pas.
func (r *ClientRepo) GetByID(ctx context.Context, userID, id string) (*entity.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var c entity.Client
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, nom, societe, email, telephone, adresse, code_postal, ville,
		       siret, tva_intracommunautaire, created_at
		FROM clients WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.Address, &c.PostalCode, &c.City,
		&c.SIRET, &c.TVANumber, &c.CreatedAt,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// ProfileRepo profil émetteur (profiles) et réglages entreprise (parametres_entreprise).
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construit l'adaptateur.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

// GetProfile profil de l'utilisateur.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	var p entity.Profile
	err := r.q.QueryRow(ctx, `
		SELECT user_id, raison_sociale, prenom, nom, forme_juridique, siret, tva_intracommunautaire,
		       adresse, code_postal, ville, telephone, email, taux_tva_defaut, franchise_tva,
		       conditions_paiement, delai_paiement, delai_paiement_jours, penalites_retard,
		       indemnite_recouvrement, escompte, validite_devis, banque, iban, bic
		FROM profiles WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.CompanyName, &p.FirstName, &p.LastName, &p.LegalForm, &p.SIRET, &p.TVANumber,
		&p.Address, &p.PostalCode, &p.City, &p.Phone, &p.Email, &p.DefaultTaxRate, &p.TVAExempt,
		&p.PaymentConditions, &p.PaymentDelay, &p.PaymentDelayDays, &p.LatePenaltyRate,
		&p.RecoveryIndemnity, &p.EarlyPaymentDiscount, &p.QuoteValidity, &p.BankName, &p.IBAN, &p.BIC,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profil: %w", err)
	}
	return &p, nil
}

// GetSettings réglages entreprise, facultatifs.
func (r *ProfileRepo) GetSettings(ctx context.Context, userID string) (*entity.CompanySettings, error) {
	var s entity.CompanySettings
	err := r.q.QueryRow(ctx, `
		SELECT user_id, taux_tva_defaut, mentions_legales, pied_de_page
		FROM parametres_entreprise WHERE user_id = $1`, userID).Scan(
		&s.UserID, &s.DefaultTaxRate, &s.LegalMentions, &s.FooterText,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paramètres entreprise: %w", err)
	}
	return &s, nil
}
