// Package sources fetches grounding material over HTTP for the grounding
// pipeline. Fetched bytes go straight into the artifact store; the document
// only ever holds references to them.
package sources
