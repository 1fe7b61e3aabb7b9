package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vouchersplit/backend/internal/errs"
)

// BlueLabelConfig holds the upstream voucher API settings. Credentials have
// no defaults and must come from the environment or .env.
type BlueLabelConfig struct {
	TradeBaseURL string
	TradeAPIKey  string
	SplitBaseURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
	ProductID    int
}

func LoadBlueLabelConfig() *BlueLabelConfig {
	viper.SetDefault("bluelabel.trade_base_url", "https://api.qa.bltelecoms.net")
	viper.SetDefault("bluelabel.split_base_url", "https://api.qa.bluelabeltelecoms.co.za/vouchersplitservice/v1")
	viper.SetDefault("bluelabel.timeout", 30*time.Second)
	viper.SetDefault("bluelabel.product_id", 13)

	var scopes []string
	if s := viper.GetString("bluelabel.scopes"); s != "" {
		scopes = strings.Fields(strings.ReplaceAll(s, ",", " "))
	}

	return &BlueLabelConfig{
		TradeBaseURL: strings.TrimRight(viper.GetString("bluelabel.trade_base_url"), "/"),
		TradeAPIKey:  viper.GetString("bluelabel.trade_api_key"),
		SplitBaseURL: strings.TrimRight(viper.GetString("bluelabel.split_base_url"), "/"),
		TokenURL:     viper.GetString("bluelabel.token_url"),
		ClientID:     viper.GetString("bluelabel.client_id"),
		ClientSecret: viper.GetString("bluelabel.client_secret"),
		Scopes:       scopes,
		Timeout:      viper.GetDuration("bluelabel.timeout"),
		ProductID:    viper.GetInt("bluelabel.product_id"),
	}
}

// Validate reports missing credentials.
func (c *BlueLabelConfig) Validate() error {
	var missing []string
	if c.TradeAPIKey == "" {
		missing = append(missing, "BLUELABEL_TRADE_API_KEY")
	}
	if c.TokenURL == "" {
		missing = append(missing, "BLUELABEL_TOKEN_URL")
	}
	if c.ClientID == "" {
		missing = append(missing, "BLUELABEL_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "BLUELABEL_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return errs.Newf("missing upstream configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
