// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing run contexts, scripting mock model replies
// and asserting lifecycle notifications. Not intended for production usage.
package testutil
