// Package speech adapts an ElevenLabs-style text-to-speech API for the
// voiceover pipeline. Clip durations come from the synthesis alignment data
// so the document never needs to decode audio.
package speech
