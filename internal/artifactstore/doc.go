// Package artifactstore persists binary artifacts (audio, images, exports)
// in a per-session SQLite database, keyed by (name, version).
//
// The store is append-only: Save always allocates a new version
// under the given name and no update-in-place operation exists, so any
// component may cache a loaded (name, version) pair forever. Save and Load
// are safe to call concurrently from multiple generators.
package artifactstore
