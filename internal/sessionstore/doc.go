// Package sessionstore persists committed scene documents as an append-only
// revision history in a per-session SQLite database.
//
// One row is written per successful pipeline commit, so reopening a session
// restores the document exactly as the last pipeline left it. Serialized
// documents round-trip through JSON unchanged.
package sessionstore
