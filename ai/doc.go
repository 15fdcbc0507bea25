// Package ai defines the interfaces for text embedding and answer
// generation services, plus their shared configuration.
//
// Implementations live in subpackages: openai talks to any
// OpenAI-compatible API (Ollama, LocalAI, vLLM), mock provides
// deterministic test doubles. Callers depend only on the interfaces here.
package ai
