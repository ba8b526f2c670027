// Package pipeline composes generator stages and one applier into a unit
// executed to completion before control returns to the caller.
//
// A run moves through Idle, Generating, Applying, and ends Complete or
// Failed. Generators of one pipeline run concurrently against the same
// document snapshot; their envelopes are collected in declared order and
// merged through a single commit once every generator has finished. Any
// generator failure fails the run before the applier gets a chance to touch
// the document, and a rejected merge leaves the document in its prior state.
//
// The pipeline itself never retries; retry policy belongs to the external
// collaborator wrapping a generator's network calls.
package pipeline
