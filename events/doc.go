// Package events normalizes raw webhook payloads into a closed set of typed
// events. Malformed individual events degrade to IgnoredEvent so one bad
// element never fails its batch; a body that is not JSON at all is the only
// parse failure surfaced to the caller.
package events
