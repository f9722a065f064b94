package dto

// CheckoutRequest body des endpoints de souscription.
type CheckoutRequest struct {
	Plan string `json:"plan"` // monthly | annual
}

// WebhookAck réponse renvoyée au prestataire.
type WebhookAck struct {
	Received bool `json:"received"`
}
