package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the single YAML document the server reads at startup. Option names
// follow the shop.yaml shipped in configs/.
type Config struct {
	// Default currency name for worlds without an explicit one. Empty means the
	// economy backend's notion of "no currency".
	Currency string `yaml:"currency"`

	// Tax rate applied to trades, 0.0-1.0. Values >= 1.0 are treated as
	// misconfiguration and disabled at runtime.
	Tax float64 `yaml:"tax"`
	// Account credited with the tax leg. Empty disables the global tax account.
	TaxAccount string `yaml:"tax_account"`
	// Unlimited shops trade tax-free regardless of the configured rate.
	TaxFreeForUnlimitedShop bool `yaml:"tax_free_for_unlimited_shop"`

	// Reassign unlimited shops to a server account on migration.
	UnlimitedShopOwnerChange        bool   `yaml:"unlimited_shop_owner_change"`
	UnlimitedShopOwnerChangeAccount string `yaml:"unlimited_shop_owner_change_account"`

	UseDecimalFormat     bool `yaml:"use_decimal_format"`
	MaximumDigitsInPrice int  `yaml:"maximum_digits_in_price"` // -1 = unlimited

	Limits      Limits      `yaml:"limits"`
	Shop        Shop        `yaml:"shop"`
	PriceLimits PriceLimits `yaml:"price_limits"`
}

type Limits struct {
	Enabled bool `yaml:"enabled"`
	// Old algorithm counts unlimited shops against the owner's quota.
	OldAlgorithm bool `yaml:"old_algorithm"`
	Max          int  `yaml:"max"`
}

type Shop struct {
	AutoSign                     bool    `yaml:"auto_sign"`
	Cost                         float64 `yaml:"cost"`
	Lock                         bool    `yaml:"lock"`
	WordForTradeAllItems         string  `yaml:"word_for_trade_all_items"`
	PayUnlimitedShopOwners       bool    `yaml:"pay_unlimited_shop_owners"`
	AllowEconomyLoan             bool    `yaml:"allow_economy_loan"`
	SendingStockMessageToStaffs  bool    `yaml:"sending_stock_message_to_staffs"`
	DisableCreativeModeTrading   bool    `yaml:"disable_creative_mode_trading"`
	AllowShopWithoutSpaceForSign bool    `yaml:"allow_shop_without_space_for_sign"`
}

type PriceLimits struct {
	// Reject prices with more fractional digits than MaximumDigitsInPrice.
	WholeNumberOnly bool    `yaml:"whole_number_only"`
	Min             float64 `yaml:"min"`
	Max             float64 `yaml:"max"` // -1 = unlimited
	Rules           []Rule  `yaml:"rules"`
}

// Rule restricts one or more item ids to explicit price ranges. A rule with
// Ranges set wins over Min/Max for the items it names.
type Rule struct {
	Items      []string     `yaml:"items"`
	Currencies []string     `yaml:"currencies"` // empty = any currency
	Min        float64      `yaml:"min"`
	Max        float64      `yaml:"max"`
	Ranges     [][2]float64 `yaml:"ranges"`
}

func Defaults() Config {
	return Config{
		Tax:                  0.0,
		TaxAccount:           "tax",
		MaximumDigitsInPrice: -1,
		Limits: Limits{
			Enabled: false,
			Max:     10,
		},
		Shop: Shop{
			AutoSign:             true,
			Lock:                 true,
			WordForTradeAllItems: "all",
		},
		PriceLimits: PriceLimits{
			Min: 0.01,
			Max: -1,
		},
	}
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("shop.yaml: %w", err)
	}
	return c, nil
}
