// Package account holds the authenticated account model and its persistent
// storage.
package account

import "golang.org/x/oauth2"

// Type selects the storage slot an account is persisted under.
type Type string

const (
	// TypeUser is an account obtained on behalf of a logged-in user.
	TypeUser Type = "user"

	// TypeClientCredentials is an app-level account with no user attached.
	TypeClientCredentials Type = "client_credentials"
)

// User is the subset of the user object an account carries. JSON is the full
// user payload as returned by the API for callers that need more.
type User struct {
	URI  string         `json:"uri"`
	Name string         `json:"name"`
	Link string         `json:"link"`
	JSON map[string]any `json:"json,omitempty"`
}

// Account is the credential state produced by a successful authentication.
// An account installed on a client must carry a non-empty access token.
type Account struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// IsAuthenticated reports whether the account carries an access token.
func (a *Account) IsAuthenticated() bool {
	return a != nil && a.AccessToken != ""
}

// IsUser reports whether the account belongs to a logged-in user rather than
// the bare app.
func (a *Account) IsUser() bool {
	return a != nil && a.User != nil
}

// StorageType returns the slot this account persists under: TypeUser when a
// user object is attached, TypeClientCredentials otherwise.
func (a *Account) StorageType() Type {
	if a.IsUser() {
		return TypeUser
	}
	return TypeClientCredentials
}

// Token returns the account's credentials as an oauth2 token.
func (a *Account) Token() *oauth2.Token {
	if a == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		TokenType:    a.TokenType,
		RefreshToken: a.RefreshToken,
	}
}

// FromToken builds an account around an existing oauth2 token, e.g. a
// constant access token issued outside this process.
func FromToken(token *oauth2.Token) *Account {
	if token == nil {
		return nil
	}
	return &Account{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
	}
}
