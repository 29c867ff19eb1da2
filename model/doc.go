// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside RoleMesh.
//
// Providers (OpenAI, Anthropic, Gemini) implement the Model interface from
// this package so agents remain decoupled from vendor SDKs. ScriptedModel
// replays canned responses for tests and examples.
package model
