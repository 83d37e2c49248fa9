// Package auth obtains and caches the bearer token for the portal API.
//
// An Authenticator first tries the cached token from its TokenStore. A cached
// JWT whose exp claim has passed is discarded locally; anything else is probed
// with the API's "who am I" endpoint through a Validator. If no usable token
// remains, the Prompter is asked for credentials, which an Exchanger trades for
// a new token (OAuth2 password grant against /token). Rejected credentials are
// retried according to a RetryPolicy; the new token is written back to the store.
//
// FileStore writes the cache with mode 0600 and, given a key, encrypts it with
// AES-256-GCM (see TokenEncryption).
package auth
