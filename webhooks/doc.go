// Package webhooks contains inbound webhook authentication.
//
// The LINE channel signs the exact raw body bytes with a shared-secret
// HMAC-SHA256, base64 encoded into the X-Line-Signature header. The Teams
// channel authenticates with a verification token carried as a query
// parameter. Both comparisons are constant time.
package webhooks
