package testutil

import (
	"context"
	"strings"

	"github.com/hupe1980/taskmesh/model"
)

// EchoHandler answers every request with its last user message.
func EchoHandler() model.HandlerFunc {
	return func(_ context.Context, req model.Request) (*model.Response, error) {
		return model.TextResponse(req.LastUserText()), nil
	}
}

// KeywordHandler answers with the reply of the first keyword contained in
// the last user message, falling back to def.
func KeywordHandler(replies map[string]string, keys []string, def string) model.HandlerFunc {
	return func(_ context.Context, req model.Request) (*model.Response, error) {
		text := req.LastUserText()
		for _, k := range keys {
			if strings.Contains(text, k) {
				return model.TextResponse(replies[k]), nil
			}
		}
		return model.TextResponse(def), nil
	}
}
