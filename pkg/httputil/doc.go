// Package httputil fetches remote tree and mapping files.
//
// [Client.GetText] performs a GET, retries transient failures with
// exponential backoff ([Retry]) and stores successful bodies in a
// [cache.Cache] keyed by URL, so repeated renders of the same remote tree
// avoid the network.
//
// Status handling:
//
//   - 200: success
//   - 404: [ErrNotFound], never retried
//   - 5xx and transport failures: [ErrNetwork] wrapped in [RetryableError]
//   - anything else: [ErrNetwork], not retried
package httputil
