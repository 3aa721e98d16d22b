package auth

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/s0up4200/vimeokit/vimeo"
)

// CodeGrantAuthorizationURL builds the authorization URL for phase one of
// the code grant. The caller opens it externally; the redirect lands on the
// app's redirect URI with code and state query parameters. The embedded
// state token is generated once per controller and checked in CodeGrant.
func (c *Controller) CodeGrantAuthorizationURL() string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.configuration.ClientIdentifier)
	query.Set("redirect_uri", c.configuration.RedirectURI)
	query.Set("scope", c.configuration.ScopeString())
	query.Set("state", c.state())

	base := c.configuration.BaseURL
	if base == "" {
		base = vimeo.DefaultBaseURL
	}
	return base + authorizePath + "?" + query.Encode()
}

// CodeGrant runs phase two of the code grant: it parses code and state out
// of the redirect callback URL, enforces the anti-CSRF state check, and
// exchanges the code for tokens. Malformed callbacks fail immediately with
// ErrCodeGrant, a state mismatch with ErrCodeGrantState; neither issues a
// network call, and both return a nil token.
func (c *Controller) CodeGrant(responseURL string, completion AccountCompletion) *vimeo.RequestToken {
	parsed, err := url.Parse(responseURL)
	if err != nil {
		completion(nil, vimeo.ErrCodeGrant)
		return nil
	}

	code := parsed.Query().Get("code")
	state := parsed.Query().Get("state")
	if code == "" || state == "" {
		completion(nil, vimeo.ErrCodeGrant)
		return nil
	}

	if state != c.state() {
		c.logger.Error().Msg("Code grant callback carried a mismatched state token")
		completion(nil, vimeo.ErrCodeGrantState)
		return nil
	}

	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   accessTokenPath,
		Parameters: vimeo.Params{
			"grant_type":   "authorization_code",
			"code":         code,
			"redirect_uri": c.configuration.RedirectURI,
		},
	}
	return c.authenticate(req, completion)
}

// state returns the controller's code grant state token, generating it on
// first use.
func (c *Controller) state() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codeGrantState == "" {
		c.codeGrantState = uuid.NewString()
	}
	return c.codeGrantState
}
