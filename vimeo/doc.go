// Package vimeo implements the request execution pipeline of the Vimeo API
// client: authenticated, cached, retrying access to the REST API.
//
// # Architecture
//
//   - Client: orchestrates cache resolution, network dispatch, retry with
//     exponential backoff, pagination extraction and error classification
//   - Request/Response: immutable values describing one API call and its
//     typed result, including derived pagination requests
//   - ResponseCache: concurrent fingerprint-to-payload storage
//   - Transport: cancellable HTTP submission with per-call auth override
//   - Notifier: client-owned publication of classified-error events
//
// # Usage
//
// Build a client from an app configuration and hand it requests:
//
//	logger := zerolog.New(os.Stdout)
//	client := vimeo.NewClient(vimeo.AppConfiguration{
//		ClientIdentifier: "id",
//		ClientSecret:     "secret",
//		Scopes:           []string{"public", "private"},
//	}, logger)
//
//	token := client.Do(vimeo.NewRequest("/me/videos"), func(resp *vimeo.Response, err error) {
//		// May fire twice: a provisional cached response, then the final
//		// network response.
//	})
//
// Cancel the network leg with token.Cancel(); canceled requests never invoke
// their completion.
//
// # Cache fetch policies
//
// Each request carries a CacheFetchPolicy deciding how the response cache
// and the network interleave: CacheOnly, CacheThenNetwork (provisional
// cached delivery before the final network one), NetworkOnly, and
// TryNetworkThenCache (cache as a fallback after a network failure).
//
// # Error handling
//
// Failures are typed *Error values carrying a domain, a numeric code and the
// HTTP status when one was received. Sentinels such as
// ErrCachedResponseNotFound match with errors.Is. Service-unavailable and
// invalid-token classifications additionally publish fire-and-forget events
// on the client's Notifier.
package vimeo
