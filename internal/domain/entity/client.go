package entity

import "time"

// Client destinataire des devis et factures d'un artisan.
type Client struct {
	ID          string
	UserID      string
	Name        string
	CompanyName string
	Email       string
	Phone       string
	Address     string
	PostalCode  string
	City        string
	SIRET       string
	TVANumber   string
	CreatedAt   time.Time
}

// DisplayName raison sociale si renseignée, sinon nom.
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
