package bluelabel

import (
	"context"
	"net/http"

	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider hands out bearer tokens for the split service.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentials fetches and caches tokens with the OAuth2
// client-credentials grant. Tokens are refreshed shortly before expiry.
type ClientCredentials struct {
	src oauth2.TokenSource
}

func NewClientCredentials(cfg *config.BlueLabelConfig, hc *http.Client) *ClientCredentials {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
	return &ClientCredentials{src: cc.TokenSource(ctx)}
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errs.Mark(errs.Wrap(err, "fetch upstream token"), errs.ErrAuth)
	}
	tok, err := c.src.Token()
	if err != nil {
		return "", errs.Mark(errs.Wrap(err, "fetch upstream token"), errs.ErrAuth)
	}
	if tok.AccessToken == "" {
		return "", errs.Markf(errs.ErrAuth, "token endpoint returned an empty access token")
	}
	return tok.AccessToken, nil
}
