package auth

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/s0up4200/vimeokit/account"
	"github.com/s0up4200/vimeokit/vimeo"
)

// API endpoints driven by the controller.
const (
	authorizePath         = "/oauth/authorize"
	clientCredentialsPath = "/oauth/authorize/client"
	accessTokenPath       = "/oauth/access_token"
	verifyPath            = "/oauth/verify"
	logInPath             = "/oauth/authorize/password"
	facebookPath          = "/oauth/authorize/facebook"
	appTokenExchangePath  = "/oauth/appexchange"
	usersPath             = "/users"
	pinCodePath           = "/oauth/device"
	pinCodeAuthorizePath  = "/oauth/device/authorize"
	tokensPath            = "/tokens"
)

// AccountCompletion receives the outcome of an authentication attempt.
type AccountCompletion func(*account.Account, error)

// Controller drives the OAuth grant protocols and manages the target
// client's account state. Grant requests run through a dedicated
// unauthenticated client (basic auth with the app credentials), isolated
// from the target client to avoid circular auth dependencies.
type Controller struct {
	configuration vimeo.AppConfiguration
	client        *vimeo.Client
	authClient    *vimeo.Client
	store         account.Store
	logger        zerolog.Logger

	mu             sync.Mutex
	codeGrantState string

	pollMu       sync.Mutex
	poll         *pinCodePoll
	pollInterval time.Duration
}

// NewController creates a controller operating on client, persisting
// accounts to store.
func NewController(client *vimeo.Client, store account.Store, logger zerolog.Logger) *Controller {
	configuration := client.Configuration()

	authClient := vimeo.NewClient(configuration, logger,
		vimeo.WithAuthorization(vimeo.BasicAuth(configuration.ClientIdentifier, configuration.ClientSecret)),
	)

	return &Controller{
		configuration: configuration,
		client:        client,
		authClient:    authClient,
		store:         store,
		logger:        logger,
		pollInterval:  pinCodePollInterval,
	}
}

// LoadStoredAccount installs a previously persisted account on the target
// client, preferring the user account over the client-credentials one.
// Returns the installed account, nil when nothing usable is stored.
func (c *Controller) LoadStoredAccount() (*account.Account, error) {
	for _, t := range []account.Type{account.TypeUser, account.TypeClientCredentials} {
		acct, err := c.store.Load(t)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored account: %w", err)
		}
		if acct.IsAuthenticated() {
			if err := c.client.SetAccount(acct); err != nil {
				return nil, err
			}
			c.client.ClearCache()
			return acct, nil
		}
	}
	return nil, nil
}

// ClientCredentialsGrant authenticates the bare app: a single request, no
// user interaction.
func (c *Controller) ClientCredentialsGrant(completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   clientCredentialsPath,
		Parameters: vimeo.Params{
			"grant_type": "client_credentials",
			"scope":      c.configuration.ScopeString(),
		},
	}
	return c.authenticate(req, completion)
}

// LogIn authenticates an existing user with email and password.
func (c *Controller) LogIn(email, password string, completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   logInPath,
		Parameters: vimeo.Params{
			"grant_type": "password",
			"username":   email,
			"password":   password,
			"scope":      c.configuration.ScopeString(),
		},
	}
	return c.authenticate(req, completion)
}

// Join creates a new user account and authenticates it.
func (c *Controller) Join(name, email, password string, completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   usersPath,
		Parameters: vimeo.Params{
			"display_name": name,
			"email":        email,
			"password":     password,
			"scope":        c.configuration.ScopeString(),
		},
	}
	return c.authenticate(req, completion)
}

// LogInWithFacebook authenticates an existing user with a Facebook token.
func (c *Controller) LogInWithFacebook(facebookToken string, completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   facebookPath,
		Parameters: vimeo.Params{
			"token": facebookToken,
			"scope": c.configuration.ScopeString(),
		},
	}
	return c.authenticate(req, completion)
}

// JoinWithFacebook creates a new user account from a Facebook token and
// authenticates it.
func (c *Controller) JoinWithFacebook(facebookToken string, completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   usersPath,
		Parameters: vimeo.Params{
			"token": facebookToken,
			"scope": c.configuration.ScopeString(),
		},
	}
	return c.authenticate(req, completion)
}

// ExchangeAppToken trades an access token issued to another app of the same
// owner for one scoped to this app.
func (c *Controller) ExchangeAppToken(accessToken string, completion AccountCompletion) *vimeo.RequestToken {
	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   appTokenExchangePath,
		Parameters: vimeo.Params{
			"access_token": accessToken,
		},
	}
	return c.authenticate(req, completion)
}

// VerifyAccessToken validates a constant access token against the verify
// endpoint using an ad-hoc client fixed to that bearer token, then installs
// and persists the resulting account.
func (c *Controller) VerifyAccessToken(token *oauth2.Token, completion AccountCompletion) *vimeo.RequestToken {
	adhoc := vimeo.NewClient(c.configuration, c.logger,
		vimeo.WithAuthorization(vimeo.BearerAuth(token.AccessToken)),
	)

	req := vimeo.Request{
		Method:           http.MethodGet,
		Path:             verifyPath,
		CacheFetchPolicy: vimeo.NetworkOnly,
	}

	return adhoc.Do(req, func(resp *vimeo.Response, err error) {
		if err != nil {
			completion(nil, err)
			return
		}

		acct := account.FromToken(token)
		attachUser(acct, resp.Payload)

		if err := c.installAccount(acct); err != nil {
			completion(nil, err)
			return
		}
		completion(acct, nil)
	})
}

// LogOut tears down the user session. Token revocation is best effort: a
// failure is logged, never surfaced, and logout proceeds regardless. When
// loadClientCredentials is set, a stored client-credentials account is
// reinstalled in place of the cleared user account. A failure to remove the
// persisted user account is returned to the caller.
func (c *Controller) LogOut(loadClientCredentials bool) error {
	acct := c.client.Account()
	if !acct.IsUser() {
		return nil
	}

	// Revoke through an ad-hoc client pinned to the outgoing token, so
	// clearing the account below cannot race the revocation request.
	revoker := vimeo.NewClient(c.configuration, c.logger,
		vimeo.WithAuthorization(vimeo.BearerAuth(acct.AccessToken)),
	)
	revoker.Do(vimeo.Request{
		Method:           http.MethodDelete,
		Path:             tokensPath,
		CacheFetchPolicy: vimeo.NetworkOnly,
		NoContent:        true,
	}, func(_ *vimeo.Response, err error) {
		if err != nil {
			c.logger.Warn().Err(err).Msg("Token revocation failed during logout")
		}
	})

	var replacement *account.Account
	if loadClientCredentials {
		stored, err := c.store.Load(account.TypeClientCredentials)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to load stored client credentials account")
		} else if stored.IsAuthenticated() {
			replacement = stored
		}
	}

	if err := c.client.SetAccount(replacement); err != nil {
		return err
	}
	c.client.ClearCache()

	if err := c.store.Remove(account.TypeUser); err != nil {
		return fmt.Errorf("failed to remove stored account: %w", err)
	}

	c.logger.Info().Bool("client_credentials_restored", replacement != nil).Msg("Logged out")
	return nil
}

// authenticate runs an auth request through the dedicated unauthenticated
// client, builds the account from the response, installs it on the target
// client and persists it. Failures propagate unchanged; a success response
// without token material is reported as ErrNoResponse.
func (c *Controller) authenticate(req vimeo.Request, completion AccountCompletion) *vimeo.RequestToken {
	req.CacheFetchPolicy = vimeo.NetworkOnly
	req.ShouldCacheResponse = false

	return c.authClient.Do(req, func(resp *vimeo.Response, err error) {
		if err != nil {
			completion(nil, err)
			return
		}

		acct, err := accountFromPayload(resp.Payload)
		if err != nil {
			completion(nil, err)
			return
		}

		if err := c.installAccount(acct); err != nil {
			completion(nil, err)
			return
		}

		completion(acct, nil)
	})
}

// installAccount sets the account on the target client, clears its cache and
// persists the account under the slot matching its kind.
func (c *Controller) installAccount(acct *account.Account) error {
	if err := c.client.SetAccount(acct); err != nil {
		return err
	}
	c.client.ClearCache()

	if err := c.store.Save(acct, acct.StorageType()); err != nil {
		return fmt.Errorf("failed to persist account: %w", err)
	}

	c.logger.Info().
		Str("type", string(acct.StorageType())).
		Msg("Authenticated")
	return nil
}

// accountFromPayload builds an account from a token response payload. A
// payload without an access token is malformed and reported as NoResponse.
func accountFromPayload(payload vimeo.Payload) (*account.Account, error) {
	accessToken, _ := payload["access_token"].(string)
	if accessToken == "" {
		return nil, vimeo.ErrNoResponse
	}

	acct := &account.Account{AccessToken: accessToken}
	if tokenType, ok := payload["token_type"].(string); ok {
		acct.TokenType = tokenType
	}
	if scope, ok := payload["scope"].(string); ok {
		acct.Scope = scope
	}
	if refresh, ok := payload["refresh_token"].(string); ok {
		acct.RefreshToken = refresh
	}
	attachUser(acct, payload)

	return acct, nil
}

// attachUser copies the user object out of the payload, when present.
func attachUser(acct *account.Account, payload vimeo.Payload) {
	raw, ok := payload["user"].(map[string]any)
	if !ok {
		return
	}

	user := &account.User{JSON: raw}
	if uri, ok := raw["uri"].(string); ok {
		user.URI = uri
	}
	if name, ok := raw["name"].(string); ok {
		user.Name = name
	}
	if link, ok := raw["link"].(string); ok {
		user.Link = link
	}
	acct.User = user
}
