package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/stripe"
)

// fakeStripe enregistre les formulaires reçus et répond par une session.
type fakeStripe struct {
	mu    sync.Mutex
	forms map[string]url.Values
	fail  bool
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.forms[r.URL.Path] = r.PostForm
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such price: 'price_x'"}}`))
		return
	}
	switch r.URL.Path {
	case "/v1/checkout/sessions":
		_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout.stripe.test/cs_1"}`))
	case "/v1/billing_portal/sessions":
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.stripe.test/bps_1"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newProvider(t *testing.T, fake *fakeStripe) *stripe.Provider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	p, err := stripe.NewProvider("sk_test_123", &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
	require.NoError(t, err)
	return p
}

func TestNewProvider_CleAbsente(t *testing.T) {
	_, err := stripe.NewProvider("", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCreateCheckoutSession(t *testing.T) {
	fake := &fakeStripe{forms: map[string]url.Values{}}
	p := newProvider(t, fake)

	u, err := p.CreateCheckoutSession(context.Background(), abonnement.CheckoutSessionInput{
		PriceID:       "price_m",
		CustomerEmail: "artisan@example.fr",
		UserID:        "user-1",
		SuccessURL:    "https://devifact.example/abonnement?success=true",
		CancelURL:     "https://devifact.example/abonnement?canceled=true",
		Metadata:      map[string]string{"user_id": "user-1", "plan_type": "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", u)

	form := fake.forms["/v1/checkout/sessions"]
	require.NotNil(t, form)
	assert.Equal(t, "subscription", form.Get("mode"))
	assert.Equal(t, "price_m", form.Get("line_items[0][price]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "artisan@example.fr", form.Get("customer_email"))
	assert.Empty(t, form.Get("customer"))
	assert.Equal(t, "user-1", form.Get("client_reference_id"))
	assert.Equal(t, "user-1", form.Get("metadata[user_id]"))
	assert.Equal(t, "monthly", form.Get("subscription_data[metadata][plan_type]"))
}

func TestCreateCheckoutSession_ClientExistant(t *testing.T) {
	fake := &fakeStripe{forms: map[string]url.Values{}}
	p := newProvider(t, fake)

	_, err := p.CreateCheckoutSession(context.Background(), abonnement.CheckoutSessionInput{
		PriceID:       "price_pm",
		CustomerID:    "cus_1",
		CustomerEmail: "ignore@example.fr",
		UserID:        "user-1",
		SuccessURL:    "https://devifact.example/ok",
		CancelURL:     "https://devifact.example/ko",
	})
	require.NoError(t, err)

	form := fake.forms["/v1/checkout/sessions"]
	assert.Equal(t, "cus_1", form.Get("customer"))
	assert.Empty(t, form.Get("customer_email"))
}

func TestCreateCheckoutSession_ErreurStripe(t *testing.T) {
	p := newProvider(t, &fakeStripe{forms: map[string]url.Values{}, fail: true})

	_, err := p.CreateCheckoutSession(context.Background(), abonnement.CheckoutSessionInput{PriceID: "price_x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "No such price")
}

func TestCreatePortalSession(t *testing.T) {
	fake := &fakeStripe{forms: map[string]url.Values{}}
	p := newProvider(t, fake)

	u, err := p.CreatePortalSession(context.Background(), "cus_1", "https://devifact.example/abonnement")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.test/bps_1", u)

	form := fake.forms["/v1/billing_portal/sessions"]
	assert.Equal(t, "cus_1", form.Get("customer"))
	assert.Equal(t, "https://devifact.example/abonnement", form.Get("return_url"))
}
