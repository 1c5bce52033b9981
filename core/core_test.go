package core

import (
	"context"
	"maps"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...any) {}
func (l testLogger) Info(string, ...any)  {}
func (l testLogger) Warn(string, ...any)  {}
func (l testLogger) Error(string, ...any) {}

// mapStore is a minimal MemoryStore for tests in this package.
type mapStore map[string]string

func (m mapStore) Set(k, v string) { m[k] = v }
func (m mapStore) Get(k, def string) string {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}
func (m mapStore) Snapshot() map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}

type stubAgent struct{ name string }

func (a stubAgent) Info() AgentInfo { return AgentInfo{Name: a.name, Kind: AgentKindWorker} }
func (a stubAgent) Tools() []Tool   { return nil }
func (a stubAgent) Execute(_ *RunContext, description string, _ []Tool) (string, error) {
	return description, nil
}

func newRunContextForTest() *RunContext {
	return NewRunContext(
		context.Background(),
		"run-x",
		map[string]string{InputUserPrompt: "partner with a fintech"},
		mapStore{},
		nil,
		testLogger{},
	)
}
