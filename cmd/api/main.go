// @title        DeviFact API
// @version      1.0
// @description  Devis, factures, paiements, stock et abonnements des artisans.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/devifact/DeviFact-sub000/docs"
	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/application/devis"
	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
	"github.com/devifact/DeviFact-sub000/internal/application/stock"
	"github.com/devifact/DeviFact-sub000/internal/domain/inventory"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/memory"
	infrapdf "github.com/devifact/DeviFact-sub000/internal/infrastructure/pdf"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/postgres"
	infrastripe "github.com/devifact/DeviFact-sub000/internal/infrastructure/stripe"
	httpRouter "github.com/devifact/DeviFact-sub000/internal/interfaces/http"
	"github.com/devifact/DeviFact-sub000/pkg/config"
	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// repositories jeu d'adaptateurs de stockage (PostgreSQL ou mémoire).
type repositories struct {
	tx interface {
		devis.TxRunner
		facture.TxRunner
		stock.TxRunner
		abonnement.TxRunner
	}
	quotes        repository.QuoteRepository
	invoices      repository.InvoiceRepository
	payments      repository.PaymentRepository
	products      repository.ProductRepository
	movements     repository.StockMovementRepository
	subscriptions repository.SubscriptionRepository
	clients       repository.ClientRepository
	profiles      repository.ProfileRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db", cfg.DB.Driver).
		Msg("démarrage de l'application")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			EnableTracing:    true,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.Fatal().Err(err).Msg("initialisation Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	var repos repositories
	switch cfg.DB.Driver {
	case "memory":
		log.Warn().Msg("stockage en mémoire : les données sont perdues à l'arrêt")
		store := memory.NewStore()
		repos = repositories{
			tx:            store,
			quotes:        store.Quotes(),
			invoices:      store.Invoices(),
			payments:      store.Payments(),
			products:      store.Products(),
			movements:     store.Movements(),
			subscriptions: store.Subscriptions(),
			clients:       store.Clients(),
			profiles:      store.Profiles(),
		}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("connexion à PostgreSQL")
		}
		defer pool.Close()
		from, to, err := postgres.Migrate(pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migrations")
		}
		if from != to {
			log.Info().Uint("de", from).Uint("vers", to).Msg("schéma mis à jour")
		}
		repos = repositories{
			tx:            postgres.NewTxRunner(pool),
			quotes:        postgres.NewQuoteRepository(pool),
			invoices:      postgres.NewInvoiceRepository(pool),
			payments:      postgres.NewPaymentRepository(pool),
			products:      postgres.NewProductRepository(pool),
			movements:     postgres.NewStockMovementRepository(pool),
			subscriptions: postgres.NewSubscriptionRepository(pool),
			clients:       postgres.NewClientRepository(pool),
			profiles:      postgres.NewProfileRepository(pool),
		}
	}

	devisUC := devis.NewUseCase(repos.tx, repos.quotes, repos.invoices, repos.clients, repos.profiles)
	factureUC := facture.NewUseCase(repos.tx, repos.invoices, repos.payments, repos.clients, nil)

	var validators []inventory.Validator
	if !cfg.Stock.AllowNegative {
		validators = append(validators, inventory.RejectNegative)
	}
	stockUC := stock.NewUseCase(repos.tx, repos.products, repos.movements, validators...)

	// Stripe : sans clé, les sessions de paiement répondent ErrConfiguration.
	var provider abonnement.BillingProvider
	if err := cfg.Billing.Validate(); err != nil {
		log.Warn().Err(err).Msg("facturation Stripe désactivée")
	} else if p, err := infrastripe.NewProvider(cfg.Billing.SecretKey, nil); err == nil {
		provider = p
	}
	entitlementUC := abonnement.NewEntitlementUseCase(repos.subscriptions, nil)
	checkoutUC := abonnement.NewCheckoutUseCase(repos.subscriptions, provider, abonnement.CheckoutConfig{
		PriceMonthly:        cfg.Billing.PriceMonthly,
		PriceAnnual:         cfg.Billing.PriceAnnual,
		PremiumPriceMonthly: cfg.Billing.PremiumPriceMonthly,
		PremiumPriceAnnual:  cfg.Billing.PremiumPriceAnnual,
		SiteURL:             cfg.Billing.SiteURL,
	}, nil)
	projector := abonnement.NewProjector(repos.tx, log.Child(func(c zerolog.Context) zerolog.Context {
		return c.Str("component", "projector")
	}), nil)

	renderUC := document.NewRenderUseCase(
		infrapdf.NewMarotoRenderer(),
		repos.quotes, repos.invoices, repos.clients, repos.profiles,
		entitlementUC, nil,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	app.Use(httpRouter.RequestLogger(log))
	if len(cfg.CORS.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	// Swagger UI en local : http://localhost:<port>/docs
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DeviFact API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DevisUC:        devisUC,
		FactureUC:      factureUC,
		StockUC:        stockUC,
		Entitlements:   entitlementUC,
		Checkout:       checkoutUC,
		RenderUC:       renderUC,
		Verifier:       infrastripe.NewWebhookVerifier(cfg.Billing.WebhookSecret),
		Projector:      projector,
		Logger:         log,
		JWTSecret:      cfg.JWT.Secret,
		JWTAudience:    cfg.JWT.Audience,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("serveur HTTP arrêté")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("signal d'arrêt reçu, fermeture du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("arrêt du serveur")
	}

	log.Info().Msg("application arrêtée")
}
