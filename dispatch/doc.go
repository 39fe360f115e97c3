// Package dispatch orchestrates one inbound webhook call end to end: signature
// gate, event normalization, ledger gate, side-effect commands, and the final
// response decision. The LINE channel answers 200 for nearly every failure so
// the platform never retries; the Teams channel gets precise status codes.
package dispatch
