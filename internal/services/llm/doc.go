// Package llm provides an OpenAI-compatible chat-completions client used by
// the semantic classifier.
//
// Complete sends a system/user prompt pair and returns the raw message
// content; CompleteJSON additionally requests a JSON object response format.
// DecodeLLMJSON tolerates code fences and prose around the payload.
// HealthCheck verifies the API key and model.
//
// # Retry Behaviour
//
// By default a request is attempted once. WithRetryMaxAttempts enables retries
// on HTTP 408/429/5xx, empty content, and network timeouts with exponential
// backoff (base 1s, max 10s). Context cancellation aborts retries immediately.
package llm
