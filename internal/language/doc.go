// Package language normalizes configured voice languages into the codes
// speech synthesis backends expect. Accepts BCP 47 tags, ISO 639-2 codes,
// and common spelled-out names.
package language
