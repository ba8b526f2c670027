// Package llm provides the chat-completion client used by the generators
// that draft, tag, and illustrate scenes. Requests retry with exponential
// backoff on rate limits, server errors, and empty completions.
package llm
