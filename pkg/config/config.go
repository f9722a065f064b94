package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/devifact/DeviFact-sub000/internal/domain"
)

// Config regroupe la configuration de l'application (lecture via Viper depuis l'environnement et, en option, un fichier).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	CORS    CORSConfig
	Billing BillingConfig
	Stock   StockConfig
	Sentry  SentryConfig
	Log     LogConfig
}

// AppConfig configuration générale.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuration PostgreSQL.
// Si DatabaseURL est renseigné il est utilisé tel quel (ex. DATABASE_URL fourni par Supabase).
// Driver "memory" remplace PostgreSQL par le stockage en mémoire (développement local).
type DBConfig struct {
	Driver      string
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString renvoie DATABASE_URL s'il est défini, sinon le DSN construit.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN construit la chaîne de connexion avec encodage URL des caractères spéciaux.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig vérification des jetons émis par le service d'authentification hébergé.
type JWTConfig struct {
	Secret   string
	Audience string // "authenticated" chez Supabase; vide = pas de contrôle
}

// HTTPConfig configuration du serveur HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renvoie l'adresse d'écoute (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CORSConfig origines autorisées pour les endpoints appelés depuis le navigateur.
type CORSConfig struct {
	AllowedOrigins []string
}

// BillingConfig clés et tarifs Stripe.
type BillingConfig struct {
	SecretKey           string
	WebhookSecret       string
	PriceMonthly        string
	PriceAnnual         string
	PremiumPriceMonthly string
	PremiumPriceAnnual  string
	SiteURL             string
}

// Validate signale les réglages manquants pour créer des sessions de paiement.
func (c BillingConfig) Validate() error {
	var missing []string
	if c.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.PriceMonthly == "" || c.PriceAnnual == "" {
		missing = append(missing, "STRIPE_PRICE_MONTHLY/STRIPE_PRICE_ANNUAL")
	}
	if c.PremiumPriceMonthly == "" || c.PremiumPriceAnnual == "" {
		missing = append(missing, "STRIPE_PREMIUM_PRICE_MONTHLY/STRIPE_PREMIUM_PRICE_ANNUAL")
	}
	if c.SiteURL == "" {
		missing = append(missing, "SITE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: variables manquantes: %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// StockConfig politique du registre de stock.
type StockConfig struct {
	AllowNegative bool
}

// SentryConfig remontée d'erreurs optionnelle.
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// LogConfig niveau de log.
type LogConfig struct {
	Level string
}

// Load lit la configuration depuis les variables d'environnement (et en option un fichier .env / config.env).
// Les variables d'environnement sont prioritaires.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absent = ignoré

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "devifact"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "devifact"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:   getString(v, "JWT_SECRET", ""),
			Audience: getString(v, "JWT_AUDIENCE", "authenticated"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList(v, "ALLOWED_ORIGINS"),
		},
		Billing: BillingConfig{
			SecretKey:           getString(v, "STRIPE_SECRET_KEY", ""),
			WebhookSecret:       getString(v, "STRIPE_WEBHOOK_SECRET", ""),
			PriceMonthly:        getString(v, "STRIPE_PRICE_MONTHLY", ""),
			PriceAnnual:         getString(v, "STRIPE_PRICE_ANNUAL", ""),
			PremiumPriceMonthly: getString(v, "STRIPE_PREMIUM_PRICE_MONTHLY", ""),
			PremiumPriceAnnual:  getString(v, "STRIPE_PREMIUM_PRICE_ANNUAL", ""),
			SiteURL:             strings.TrimRight(getString(v, "SITE_URL", ""), "/"),
		},
		Stock: StockConfig{
			AllowNegative: getBool(v, "STOCK_ALLOW_NEGATIVE", true),
		},
		Sentry: SentryConfig{
			DSN:              getString(v, "SENTRY_DSN", ""),
			TracesSampleRate: getFloat(v, "SENTRY_TRACES_SAMPLE_RATE", 0.2),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, fmt.Errorf("config: DB_DRIVER inconnu %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil {
		return def
	}
	return f
}

// getList lit une liste séparée par des virgules.
func getList(v *viper.Viper, key string) []string {
	raw := getString(v, key, "")
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
