package apierr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStatusTable(t *testing.T) {
	tests := []struct {
		upstream   int
		wantCode   string
		wantStatus int
	}{
		{400, CodeBadRequest, 400},
		{401, CodeUnauthorized, 401},
		{403, CodeForbidden, 403},
		{404, CodeNotFound, 404},
		{408, CodeTimeout, 504},
		{429, CodeRateLimited, 429},
		{500, CodeUpstreamError, 502},
		{503, CodeUpstreamError, 502},
		{504, CodeTimeout, 504},
		{418, CodeUpstreamError, 502},
		{599, CodeUpstreamError, 502},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.upstream), func(t *testing.T) {
			got := FromStatus(tt.upstream)
			require.Equal(t, tt.wantCode, got.Code)
			require.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	inner := BadRequest("prompt is required")
	wrapped := fmt.Errorf("handler: %w", inner)

	got, ok := As(wrapped)
	require.True(t, ok)
	require.Same(t, inner, got)

	_, ok = As(fmt.Errorf("plain failure"))
	require.False(t, ok)
}
