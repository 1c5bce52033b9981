// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside taskmesh.
//
// Core goals:
//   - A single blocking Generate call per model turn
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so agents remain decoupled from vendor SDKs.
package model
