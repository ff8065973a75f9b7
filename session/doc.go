// Package session owns per-conversation state: dialogs keyed by dialog id,
// each holding an ordered turn history. All concurrent access goes through
// a single reader/writer lock over the dialog map; the lock never leaks
// outside the Store. Dialogs are created lazily on first message, never
// deleted, only marked closed.
package session
