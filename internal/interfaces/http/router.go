package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/application/devis"
	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
	"github.com/devifact/DeviFact-sub000/internal/application/stock"
	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// RouterDeps dépendances du routeur.
type RouterDeps struct {
	DevisUC        *devis.UseCase
	FactureUC      *facture.UseCase
	StockUC        *stock.UseCase
	Entitlements   *abonnement.EntitlementUseCase
	Checkout       *abonnement.CheckoutUseCase
	RenderUC       *document.RenderUseCase
	Verifier       EventVerifier
	Projector      EventProjector
	Logger         *logger.Logger
	JWTSecret      string
	JWTAudience    string
	AllowedOrigins []string
}

// Router enregistre les routes de l'API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Webhooks (public, signature Stripe)
	webhookHandler := NewWebhookHandler(deps.Verifier, deps.Projector, deps.Logger)
	api.Post("/webhooks/stripe", webhookHandler.Receive)

	// PDF depuis le client web (public, contrôle d'origine)
	pdfHandler := NewPDFHandler(deps.RenderUC)
	api.Post("/pdf", RequireOrigin(deps.AllowedOrigins), pdfHandler.Render)
	api.All("/pdf", pdfHandler.MethodNotAllowed)

	// Routes protégées (Bearer Token)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret, deps.JWTAudience))
	requireAccess := RequireAccess(deps.Entitlements)
	requirePremium := RequirePremium(deps.Entitlements)

	// Abonnement
	abonnementHandler := NewAbonnementHandler(deps.Entitlements, deps.Checkout)
	sub := protected.Group("/abonnement")
	sub.Get("/", abonnementHandler.Get)
	sub.Post("/essai", abonnementHandler.ProvisionTrial)
	sub.Post("/checkout", abonnementHandler.Checkout)
	sub.Post("/premium/checkout", abonnementHandler.PremiumCheckout)
	sub.Post("/portail", abonnementHandler.Portal)

	// Devis
	devisHandler := NewDevisHandler(deps.DevisUC)
	quotes := protected.Group("/devis")
	quotes.Get("/", devisHandler.List)
	quotes.Post("/", devisHandler.Create)
	quotes.Get("/prochain-numero", devisHandler.NextNumber)
	quotes.Get("/:id", devisHandler.Get)
	quotes.Put("/:id", devisHandler.Update)
	quotes.Delete("/:id", devisHandler.Delete)
	quotes.Patch("/:id/statut", devisHandler.SetStatus)
	quotes.Post("/:id/facture", devisHandler.Convert)
	quotes.Get("/:id/pdf", pdfHandler.Quote)

	// Factures et paiements
	factureHandler := NewFactureHandler(deps.FactureUC)
	invoices := protected.Group("/factures")
	invoices.Get("/", factureHandler.List)
	invoices.Get("/:id", factureHandler.Get)
	invoices.Get("/:id/pdf", pdfHandler.Invoice)
	invoices.Post("/:id/annulation", factureHandler.Cancel)
	invoices.Get("/:id/paiements", requireAccess, factureHandler.Payments)
	invoices.Post("/:id/paiements", requireAccess, factureHandler.RecordPayment)
	invoices.Post("/:id/paiements/:paymentId/annulation", requireAccess, factureHandler.RecordReversal)

	// Stock (option premium)
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup := protected.Group("/stock", requirePremium)
	stockGroup.Post("/mouvements", stockHandler.RecordMovement)
	stockGroup.Get("/produits/:id/mouvements", stockHandler.ListMovements)
	stockGroup.Get("/alertes", stockHandler.LowStock)
}
