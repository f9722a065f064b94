package domain

import "errors"

// Erreurs de domaine (sans dépendance externe).
var (
	ErrNotFound          = errors.New("ressource introuvable")
	ErrInvalidInput      = errors.New("données invalides")
	ErrInvalidState      = errors.New("opération impossible dans l'état actuel")
	ErrConflict          = errors.New("conflit avec l'état actuel")
	ErrInvalidAmount     = errors.New("montant invalide")
	ErrExceedsBalance    = errors.New("le montant dépasse le reste à payer")
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrUnauthorized      = errors.New("non authentifié")
	ErrForbidden         = errors.New("accès refusé")
	ErrConfiguration     = errors.New("configuration manquante")
	ErrUpstream          = errors.New("service externe indisponible")
)
