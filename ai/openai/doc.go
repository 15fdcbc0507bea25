// Package openai implements the ai interfaces against any
// OpenAI-compatible API, including local servers such as Ollama,
// LocalAI, and vLLM.
package openai
