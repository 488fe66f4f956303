package ratelimit_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/items-api/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

// mockHumaContext implements huma.Context for testing tier resolution.
type mockHumaContext struct {
	method    string
	operation *huma.Operation
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}

func (m *mockHumaContext) Context() context.Context          { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState         { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion        { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                    { return m.method }
func (m *mockHumaContext) Host() string                      { return "" }
func (m *mockHumaContext) RemoteAddr() string                { return "" }
func (m *mockHumaContext) URL() url.URL                      { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string             { return "" }
func (m *mockHumaContext) Query(_ string) string             { return "" }
func (m *mockHumaContext) Header(_ string) string            { return "" }
func (m *mockHumaContext) EachHeader(_ func(string, string)) {}
func (m *mockHumaContext) BodyReader() io.Reader             { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(_ int)                   {}
func (m *mockHumaContext) Status() int                       { return 0 }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return nil }

func TestMethodTierResolver_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		want   ratelimit.Tier
	}{
		{method: "GET", want: ratelimit.TierRead},
		{method: "HEAD", want: ratelimit.TierRead},
		{method: "OPTIONS", want: ratelimit.TierRead},
		{method: "POST", want: ratelimit.TierWrite},
		{method: "PUT", want: ratelimit.TierWrite},
		{method: "PATCH", want: ratelimit.TierWrite},
		{method: "DELETE", want: ratelimit.TierWrite},
	}

	resolver := ratelimit.NewMethodTierResolver()

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, resolver.Resolve(&mockHumaContext{method: tt.method}))
		})
	}
}

func TestOperationTierResolver_Resolve(t *testing.T) {
	t.Parallel()

	resolver := ratelimit.NewOperationTierResolver()

	tests := []struct {
		name      string
		method    string
		operation *huma.Operation
		want      ratelimit.Tier
	}{
		{
			name:      "nil operation uses general tier",
			method:    "GET",
			operation: nil,
			want:      ratelimit.TierGeneral,
		},
		{
			name:      "operation without metadata uses general tier",
			method:    "POST",
			operation: &huma.Operation{},
			want:      ratelimit.TierGeneral,
		},
		{
			name:   "unrelated metadata uses general tier",
			method: "GET",
			operation: &huma.Operation{
				Metadata: map[string]any{"other": "value"},
			},
			want: ratelimit.TierGeneral,
		},
		{
			name:      "metadata tier wins over method",
			method:    "GET",
			operation: &huma.Operation{Metadata: ratelimit.Metadata(ratelimit.TierBatch)},
			want:      ratelimit.TierBatch,
		},
		{
			name:      "metadata tier on POST",
			method:    "POST",
			operation: &huma.Operation{Metadata: ratelimit.Metadata(ratelimit.TierRead)},
			want:      ratelimit.TierRead,
		},
		{
			name:   "empty tier falls back to method",
			method: "DELETE",
			operation: &huma.Operation{
				Metadata: map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{}},
			},
			want: ratelimit.TierWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := &mockHumaContext{method: tt.method, operation: tt.operation}
			assert.Equal(t, tt.want, resolver.Resolve(ctx))
		})
	}
}

func TestGetEndpointConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation *huma.Operation
		wantNil   bool
	}{
		{
			name:      "nil operation returns nil",
			operation: nil,
			wantNil:   true,
		},
		{
			name:      "operation without metadata returns nil",
			operation: &huma.Operation{},
			wantNil:   true,
		},
		{
			name: "operation with wrong type returns nil",
			operation: &huma.Operation{
				Metadata: map[string]any{
					ratelimit.MetadataKey: "wrong type",
				},
			},
			wantNil: true,
		},
		{
			name: "operation with valid config returns config",
			operation: &huma.Operation{
				Metadata: map[string]any{
					ratelimit.MetadataKey: ratelimit.EndpointConfig{
						Tier:     ratelimit.TierRead,
						Disabled: true,
					},
				},
			},
			wantNil: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := &mockHumaContext{operation: tt.operation}
			cfg := ratelimit.GetEndpointConfig(ctx)

			if tt.wantNil {
				assert.Nil(t, cfg)

				return
			}

			require.NotNil(t, cfg)
			assert.Equal(t, ratelimit.TierRead, cfg.Tier)
			assert.True(t, cfg.Disabled)
		})
	}
}
