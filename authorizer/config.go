package authorizer

import (
	"fmt"
	"strings"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/jonanatree/benefit-authorizer/internal/merchant"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

// Config is a configuration for the authorizer application
type Config struct {
	HTTPAddr    string
	ISO8583Addr string
	Ledger      LedgerConfig
	// Merchants is the merchant pattern table. Order is significant: the
	// first matching pattern wins.
	Merchants []models.MerchantPattern
	// Accounts are seeded into the ledger at startup.
	Accounts []models.Account
}

type LedgerConfig struct {
	Backend string
	DSN     string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    "localhost:9090",
		ISO8583Addr: "localhost:8583",
		Ledger: LedgerConfig{
			Backend: LedgerMemory,
		},
		Merchants: append([]models.MerchantPattern(nil), merchant.DefaultPatterns...),
		Accounts: []models.Account{
			seedAccount("123", 700, 500, 2000),
			seedAccount("user_001", 500, 300, 1000),
			seedAccount("user_002", 400, 250, 1200),
			seedAccount("user_003", 600, 320, 900),
			seedAccount("user_004", 700, 400, 800),
			seedAccount("user_005", 550, 350, 1100),
		},
	}
}

func seedAccount(id string, food, meal, cash int64) models.Account {
	return models.Account{
		ID:   id,
		Food: decimal.NewFromInt(food),
		Meal: decimal.NewFromInt(meal),
		Cash: decimal.NewFromInt(cash),
	}
}

type accountSeed struct {
	ID   string `mapstructure:"id"`
	Food string `mapstructure:"food"`
	Meal string `mapstructure:"meal"`
	Cash string `mapstructure:"cash"`
}

// LoadConfig overlays the values found in v on top of DefaultConfig.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, nil
	}

	if s := v.GetString("http_addr"); s != "" {
		cfg.HTTPAddr = s
	}
	if s := v.GetString("iso8583_addr"); s != "" {
		cfg.ISO8583Addr = s
	}
	if s := v.GetString("ledger.backend"); s != "" {
		cfg.Ledger.Backend = strings.ToLower(s)
	}
	if s := v.GetString("ledger.dsn"); s != "" {
		cfg.Ledger.DSN = s
	}

	if v.IsSet("merchants") {
		var merchants []models.MerchantPattern
		if err := v.UnmarshalKey("merchants", &merchants); err != nil {
			return nil, fmt.Errorf("decoding merchants: %w", err)
		}
		for i, m := range merchants {
			if strings.TrimSpace(m.Pattern) == "" || strings.TrimSpace(m.MCC) == "" {
				return nil, fmt.Errorf("merchant #%d: pattern and mcc are required", i)
			}
		}
		cfg.Merchants = merchants
	}

	if v.IsSet("accounts") {
		var seeds []accountSeed
		if err := v.UnmarshalKey("accounts", &seeds); err != nil {
			return nil, fmt.Errorf("decoding accounts: %w", err)
		}
		accounts := make([]models.Account, 0, len(seeds))
		for _, s := range seeds {
			a, err := s.account()
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, a)
		}
		cfg.Accounts = accounts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s accountSeed) account() (models.Account, error) {
	if strings.TrimSpace(s.ID) == "" {
		return models.Account{}, fmt.Errorf("account: id is required")
	}
	a := models.Account{ID: s.ID}
	for _, b := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"food", s.Food, &a.Food},
		{"meal", s.Meal, &a.Meal},
		{"cash", s.Cash, &a.Cash},
	} {
		if b.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(b.raw)
		if err != nil {
			return models.Account{}, fmt.Errorf("account %s: %s balance: %w", s.ID, b.name, err)
		}
		if d.IsNegative() {
			return models.Account{}, fmt.Errorf("account %s: %s balance must not be negative", s.ID, b.name)
		}
		if !d.Equal(d.Truncate(models.AmountPlaces)) {
			return models.Account{}, fmt.Errorf("account %s: %s balance has more than %d decimal places", s.ID, b.name, models.AmountPlaces)
		}
		*b.dst = d
	}
	return a, nil
}

func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case LedgerMemory:
	case LedgerPostgres:
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn is required for %s ledger", LedgerPostgres)
		}
	default:
		return fmt.Errorf("unsupported ledger backend %q", c.Ledger.Backend)
	}
	return nil
}
