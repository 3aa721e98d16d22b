// Package auth implements the multi-mode OAuth2 authentication controller:
// client-credentials grant, two-phase authorization-code grant with an
// anti-CSRF state check, constant access token verification, the private
// log in / join / Facebook / app-token-exchange protocols, and the pin-code
// device flow with cancelable long polling.
//
// All protocols funnel through a shared helper that runs the grant request
// on a dedicated unauthenticated client, then installs the resulting account
// on the target client (clearing its response cache) and persists it under
// the user or client-credentials slot of the account store.
package auth
