package api

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEnvelopeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    error
	}{
		{"Not permitted: user not found", ErrPlayerNotFound},
		{"Not permitted: not allowed", ErrPrivateAccount},
		{"Not permitted: not authenticated", ErrSessionExpired},
		{"something upstream broke", ErrUpstreamFailure},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.message, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(map[string]string{"message": tt.message})
			assert.NoError(t, err)
			assert.ErrorIs(t, classifyEnvelopeError(data), tt.want)
		})
	}
}

func TestClassifyEnvelopeErrorMalformedData(t *testing.T) {
	t.Parallel()

	err := classifyEnvelopeError(json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPermanent(ErrPlayerNotFound))
	assert.True(t, IsPermanent(ErrPrivateAccount))
	assert.True(t, IsPermanent(ErrSessionExpired))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", ErrInvalidMatchID)))
	assert.False(t, IsPermanent(ErrUpstreamFailure))
	assert.False(t, IsPermanent(fmt.Errorf("%w: status 500", ErrUpstreamFailure)))
}

func TestEncodeUsername(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Player%231234", encodeUsername("battle", "Player#1234"))
	assert.Equal(t, "Player#1234", encodeUsername("psn", "Player#1234"))
	assert.Equal(t, "someplayer", encodeUsername("battle", "someplayer"))
}
