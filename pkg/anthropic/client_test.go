package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CountTokens(ctx context.Context, req CountRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

var _ Client = (*MockClient)(nil)

func TestMockClient_CountTokens(t *testing.T) {
	m := &MockClient{}
	req := CountRequest{Model: "claude-haiku-4-5-20251001", Messages: []Message{{Role: "user", Content: "hi"}}}
	m.On("CountTokens", mock.Anything, req).Return(int64(9), nil)

	n, err := m.CountTokens(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	m.AssertExpectations(t)
}

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
		{Role: "", Content: "defaults to user"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
	assert.Equal(t, "user", string(out[2].Role))
}
