// Package document defines the shared scene document and the state handle
// that guards every mutation of it.
//
// A Document is the single growing record of a session: an ordered list of
// scenes plus named artifact references. Scenes carry only text, numbers, and
// artifact references; blob payloads always live in the artifact store and
// are addressed through ArtifactRef values.
//
// The State type is the only mutation path. Generators read snapshots,
// appliers mutate through Commit, and a failed commit leaves the live
// document exactly as it was.
//
// Field ownership is a cross-pipeline convention, not a mechanism: the script
// pipeline owns Comment and Speech, tagging owns TaggedSpeech, audio owns
// DurationSeconds and Audio, visuals owns VisualHTML and Slide. A pipeline
// never overwrites a field another pipeline populated.
package document
