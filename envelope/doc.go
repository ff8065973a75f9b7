// Package envelope defines the wire shapes exchanged over the bus:
// commands, queries, events, dialog messages and health responses. All
// payloads are UTF-8 JSON with no binary framing.
//
// Command and query type tags are closed sets; tags that do not match a
// known variant parse to the explicit Unknown variant, which handlers
// reject uniformly. The raw tag string is kept on the envelope so event
// names such as "<commandType>_failed" can still be derived for unknown
// tags.
package envelope
