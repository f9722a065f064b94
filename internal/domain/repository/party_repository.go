package repository

import (
	"context"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// ClientRepository lecture des clients de l'utilisateur.
type ClientRepository interface {
	GetByID(ctx context.Context, userID, id string) (*entity.Client, error)
}

// ProfileRepository lecture du profil émetteur et des réglages entreprise.
// Un profil ou des réglages absents renvoient (nil, nil).
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	GetSettings(ctx context.Context, userID string) (*entity.CompanySettings, error)
}
