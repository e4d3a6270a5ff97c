// Package provider defines the provider-agnostic contract for invoking
// large-language-model backends plus the shared orchestration around it.
//
// Core pieces:
//   - Provider: the capability set every concrete backend implements
//     (completion, chat completion, embeddings, token counting, tools)
//   - Registry: maps backend variant tags to constructors so callers can
//     instantiate providers from configuration
//   - Dispatcher: the cache-aware invocation path shared by all providers
//     (eligibility gate → cache lookup → generate → cache populate)
//   - MockProvider: a lightweight in-memory Provider for tests & examples
//
// Concrete backends (provider/anthropic, provider/openai) implement Provider
// so higher layers remain decoupled from vendor SDKs.
package provider
