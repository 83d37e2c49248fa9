package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrCredentialsRejected is returned by an Exchanger when the portal refuses
// the username/password pair. The login loop retries on it.
var ErrCredentialsRejected = errors.New("credentials rejected")

// Exchanger trades credentials for an access token.
type Exchanger interface {
	Exchange(ctx context.Context, username, password string) (string, error)
}

// PasswordGrant exchanges credentials with the portal's form-encoded token
// endpoint (OAuth2 resource owner password grant).
type PasswordGrant struct {
	config *oauth2.Config
	client *http.Client
}

// NewPasswordGrant returns an Exchanger posting to tokenURL. A nil client uses
// http.DefaultClient.
func NewPasswordGrant(tokenURL string, client *http.Client) *PasswordGrant {
	return &PasswordGrant{
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
	}
}

// Exchange posts username and password and returns the access_token.
func (g *PasswordGrant) Exchange(ctx context.Context, username, password string) (string, error) {
	if g.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	}

	tok, err := g.config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return "", fmt.Errorf("%w: %s", ErrCredentialsRejected, rerr.Response.Status)
		}
		return "", fmt.Errorf("token request failed: %w", err)
	}
	return tok.AccessToken, nil
}
