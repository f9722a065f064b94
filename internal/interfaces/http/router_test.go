package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/application/devis"
	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
	"github.com/devifact/DeviFact-sub000/internal/application/stock"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/memory"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/stripe"
	apphttp "github.com/devifact/DeviFact-sub000/internal/interfaces/http"
	pkgjwt "github.com/devifact/DeviFact-sub000/pkg/jwt"
	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret     = "test-secret-key-for-unit-tests"
	testAudience      = "authenticated"
	testWebhookSecret = "whsec_test"
	testUserID        = "00000000-0000-0000-0000-000000000001"
	testClientID      = "client-1"
	testProductID     = "produit-1"
	allowedOrigin     = "https://app.devifact.example"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(*document.Document) ([]byte, error) { return []byte("%PDF-1.4 test"), nil }

type fakeProvider struct{}

func (fakeProvider) CreateCheckoutSession(context.Context, abonnement.CheckoutSessionInput) (string, error) {
	return "https://checkout.example/session", nil
}

func (fakeProvider) CreatePortalSession(context.Context, string, string) (string, error) {
	return "https://billing.example/portal", nil
}

// newTestApp monte le routeur complet sur un stockage en mémoire.
func newTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: testClientID, UserID: testUserID, Name: "Mme Durand"})
	store.AddProduct(&entity.Product{
		ID: testProductID, UserID: testUserID, Kind: entity.ProductKindCustom,
		Designation: "Tube cuivre", StockTracked: true,
	})

	entitlements := abonnement.NewEntitlementUseCase(store.Subscriptions(), nil)
	checkout := abonnement.NewCheckoutUseCase(store.Subscriptions(), fakeProvider{}, abonnement.CheckoutConfig{
		PriceMonthly:        "price_m",
		PriceAnnual:         "price_a",
		PremiumPriceMonthly: "price_pm",
		PremiumPriceAnnual:  "price_pa",
		SiteURL:             "https://devifact.example",
	}, nil)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		DevisUC:   devis.NewUseCase(store, store.Quotes(), store.Invoices(), store.Clients(), store.Profiles()),
		FactureUC: facture.NewUseCase(store, store.Invoices(), store.Payments(), store.Clients(), nil),
		StockUC:   stock.NewUseCase(store, store.Products(), store.Movements()),
		RenderUC: document.NewRenderUseCase(fakeRenderer{}, store.Quotes(), store.Invoices(),
			store.Clients(), store.Profiles(), entitlements, nil),
		Entitlements:   entitlements,
		Checkout:       checkout,
		Verifier:       stripe.NewWebhookVerifier(testWebhookSecret),
		Projector:      abonnement.NewProjector(store, logger.Nop(), nil),
		Logger:         logger.Nop(),
		JWTSecret:      testJWTSecret,
		JWTAudience:    testAudience,
		AllowedOrigins: []string{allowedOrigin},
	})
	return app, store
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "artisan@example.fr", testAudience, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do envoie la requête ; body est encodé en JSON sauf s'il est déjà en []byte.
func do(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func authed(t *testing.T) map[string]string {
	return map[string]string{"Authorization": bearer(t)}
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

func startTrial(store *memory.Store) {
	store.PutSubscription(entity.NewTrialSubscription(testUserID, time.Now()))
}

func startPremium(store *memory.Store) {
	now := time.Now()
	end := now.Add(30 * 24 * time.Hour)
	sub := entity.NewTrialSubscription(testUserID, now.Add(-60*24*time.Hour))
	sub.Main.Status = entity.SubscriptionStatusActive
	sub.Main.PeriodStart = &now
	sub.Main.PeriodEnd = &end
	sub.Main.CustomerID = "cus_1"
	sub.Premium.Active = true
	sub.Premium.PeriodStart = &now
	sub.Premium.PeriodEnd = &end
	store.PutSubscription(sub)
}

var quoteBody = map[string]any{
	"client_id": testClientID,
	"lignes": []map[string]any{
		{"designation": "Chauffe-eau 200 L", "quantite": "2", "prix_unitaire_ht": "100", "taux_tva": "20"},
	},
}

// ──────────────────────────────────────────────────────────────────────────────
// Devis -> facture -> paiements
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_DevisFacturePaiements(t *testing.T) {
	app, store := newTestApp(t)
	startTrial(store)
	h := authed(t)

	resp, body := do(t, app, http.MethodGet, "/api/devis/prochain-numero", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DEV-0001", decode(t, body)["numero"])

	resp, body = do(t, app, http.MethodPost, "/api/devis", quoteBody, h)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	quote := decode(t, body)
	quoteID := quote["id"].(string)
	assert.Equal(t, "DEV-0001", quote["numero"])
	assert.Equal(t, entity.QuoteStatusDraft, quote["statut"])

	// conversion refusée tant que le devis n'est pas accepté
	resp, body = do(t, app, http.MethodPost, "/api/devis/"+quoteID+"/facture", nil, h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidState, decode(t, body)["code"])

	resp, _ = do(t, app, http.MethodPatch, "/api/devis/"+quoteID+"/statut", map[string]string{"statut": entity.QuoteStatusAccepted}, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, "/api/devis/"+quoteID+"/facture", nil, h)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	invoice := decode(t, body)
	invoiceID := invoice["id"].(string)
	assert.Equal(t, "FA-0001", invoice["numero"])

	resp, body = do(t, app, http.MethodPost, "/api/devis/"+quoteID+"/facture", nil, h)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeConflict, decode(t, body)["code"])

	pay := func(amount string) (*http.Response, []byte) {
		return do(t, app, http.MethodPost, "/api/factures/"+invoiceID+"/paiements",
			map[string]string{"montant": amount, "mode_paiement": entity.PaymentModeVirement}, h)
	}
	resp, body = pay("100")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, _ = pay("140")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body = pay("0.01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeExceedsBalance, decode(t, body)["code"], "facture soldée")

	resp, body = do(t, app, http.MethodGet, "/api/factures/"+invoiceID+"/paiements", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode(t, body)
	assert.Equal(t, entity.InvoiceStatusPaid, summary["statut"])
	assert.Len(t, summary["paiements"], 2)

	resp, body = do(t, app, http.MethodGet, "/api/factures", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, entity.InvoiceStatusPaid, list[0]["statut"])
}

func TestRouter_DevisIntrouvable(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, http.MethodGet, "/api/devis/inconnu", nil, authed(t))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, decode(t, body)["code"])
}

func TestRouter_CorpsInvalide(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, http.MethodPost, "/api/devis", []byte("{pas du json"), authed(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, decode(t, body)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Droits d'accès
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_PaiementsSansAbonnement(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, http.MethodGet, "/api/factures/f-1/paiements", nil, authed(t))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeSubscriptionRequired, decode(t, body)["code"])
}

func TestRouter_StockPremium(t *testing.T) {
	app, store := newTestApp(t)
	startTrial(store)
	h := authed(t)
	movement := map[string]string{"produit_id": testProductID, "type": entity.MovementTypeIn, "quantite": "5"}

	resp, body := do(t, app, http.MethodPost, "/api/stock/mouvements", movement, h)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "l'essai ne donne pas accès au stock")
	assert.Equal(t, apphttp.CodePremiumRequired, decode(t, body)["code"])

	startPremium(store)
	resp, body = do(t, app, http.MethodPost, "/api/stock/mouvements", movement, h)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "5", decode(t, body)["stock_apres"])

	resp, body = do(t, app, http.MethodGet, "/api/stock/produits/"+testProductID+"/mouvements", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movements []map[string]any
	require.NoError(t, json.Unmarshal(body, &movements))
	assert.Len(t, movements, 1)

	resp, _ = do(t, app, http.MethodGet, "/api/stock/alertes", nil, h)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Abonnement et webhook
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Abonnement(t *testing.T) {
	app, _ := newTestApp(t)
	h := authed(t)

	resp, body := do(t, app, http.MethodGet, "/api/abonnement", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["has_access"])

	resp, body = do(t, app, http.MethodPost, "/api/abonnement/essai", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ent := decode(t, body)
	assert.Equal(t, true, ent["trial_active"])
	assert.Equal(t, float64(30), ent["trial_days_left"])

	resp, body = do(t, app, http.MethodPost, "/api/abonnement/checkout", map[string]string{"plan": "weekly"}, h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, body)["code"])

	resp, body = do(t, app, http.MethodPost, "/api/abonnement/checkout", map[string]string{"plan": entity.PlanMonthly}, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://checkout.example/session", decode(t, body)["url"])

	resp, body = do(t, app, http.MethodPost, "/api/abonnement/premium/checkout", map[string]string{"plan": entity.PlanMonthly}, h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "l'essai ne permet pas l'option premium")
	assert.Equal(t, apphttp.CodeInvalidState, decode(t, body)["code"])

	resp, _ = do(t, app, http.MethodPost, "/api/abonnement/portail", nil, h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "aucun client de facturation")
}

func signedWebhook(t *testing.T, payload []byte, secret string) map[string]string {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return map[string]string{"Stripe-Signature": "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))}
}

func TestRouter_WebhookStripe(t *testing.T) {
	app, store := newTestApp(t)
	startTrial(store)
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2022-11-15","created":1715342400,
		"type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session",
		"customer":"cus_1","subscription":"sub_1","metadata":{"user_id":"` + testUserID + `","plan_type":"monthly"}}}}`)

	resp, body := do(t, app, http.MethodPost, "/api/webhooks/stripe", payload, signedWebhook(t, payload, "whsec_autre"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, body)["code"])

	for i := 0; i < 2; i++ {
		resp, body = do(t, app, http.MethodPost, "/api/webhooks/stripe", payload, signedWebhook(t, payload, testWebhookSecret))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, decode(t, body)["received"])
	}

	resp, body = do(t, app, http.MethodGet, "/api/abonnement", nil, authed(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ent := decode(t, body)
	assert.Equal(t, true, ent["main_subscription_active"])
	assert.Equal(t, false, ent["is_premium"])

	ignored := []byte(`{"id":"evt_2","object":"event","created":1715342400,"type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
	resp, _ = do(t, app, http.MethodPost, "/api/webhooks/stripe", ignored, signedWebhook(t, ignored, testWebhookSecret))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// PDF
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_PDF(t *testing.T) {
	app, _ := newTestApp(t)
	payload := map[string]any{
		"type":     "facture",
		"document": map[string]string{"numero": "FA-0001", "date": "2024-05-10"},
		"client":   map[string]string{"nom": "Mme Durand"},
		"profile":  map[string]string{"raison_sociale": "Plomberie Martin"},
		"lignes": []map[string]any{
			{"designation": "Main d'œuvre", "quantite": 2, "prix_unitaire_ht": "45,50", "taux_tva": 10},
		},
	}

	t.Run("méthode refusée", func(t *testing.T) {
		resp, body := do(t, app, http.MethodGet, "/api/pdf", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, apphttp.CodeMethodNotAllowed, decode(t, body)["code"])
	})

	t.Run("origine refusée", func(t *testing.T) {
		resp, body := do(t, app, http.MethodPost, "/api/pdf", payload, map[string]string{"Origin": "https://evil.example"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, apphttp.CodeOriginNotAllowed, decode(t, body)["code"])
	})

	t.Run("type inconnu", func(t *testing.T) {
		bad := map[string]any{"type": "avoir", "document": map[string]string{"numero": "X"}}
		resp, _ := do(t, app, http.MethodPost, "/api/pdf", bad, map[string]string{"Origin": allowedOrigin})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rendu", func(t *testing.T) {
		resp, body := do(t, app, http.MethodPost, "/api/pdf", payload, map[string]string{"Origin": allowedOrigin})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="facture-FA-0001.pdf"`, resp.Header.Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	})
}

func TestRouter_PDFDevisEnregistre(t *testing.T) {
	app, _ := newTestApp(t)
	h := authed(t)
	resp, body := do(t, app, http.MethodPost, "/api/devis", quoteBody, h)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quoteID := decode(t, body)["id"].(string)

	resp, _ = do(t, app, http.MethodGet, "/api/devis/"+quoteID+"/pdf", nil, h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="devis-DEV-0001.pdf"`, resp.Header.Get("Content-Disposition"))
}
