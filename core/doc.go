// Package core contains canonical chatbridge domain contracts, entities, and
// configuration. Lower-level adapters must depend on this package; core must
// not depend on channel-specific or transport-specific adapters.
package core
