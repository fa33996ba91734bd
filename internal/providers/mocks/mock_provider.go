package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) Fetch(ctx context.Context, params map[string]string) (json.RawMessage, string, error) {
	args := m.Called(ctx, params)
	var payload json.RawMessage
	if raw := args.Get(0); raw != nil {
		payload = raw.(json.RawMessage)
	}
	return payload, args.String(1), args.Error(2)
}
