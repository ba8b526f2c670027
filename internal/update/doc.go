// Package update defines the envelope contract between generators and
// appliers: an immutable, ordered batch of targeted field mutations.
//
// Mutations are a small closed set of tagged variants, validated at
// construction. An envelope never carries blob bytes; artifact payloads are
// addressed through document.ArtifactRef values, and inline text values are
// capped at a few kilobytes. Apply merges envelopes into a document in
// envelope order: an unknown scene index aborts the whole merge, and the
// last write to a field within one envelope wins.
package update
