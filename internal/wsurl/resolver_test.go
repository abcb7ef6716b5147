package wsurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{
			name: "ws base already ends with path",
			base: "ws://localhost:8000/ws/events",
			path: "/ws/events",
			want: "ws://localhost:8000/ws/events",
		},
		{
			name: "ws base with custom sub-path appends",
			base: "ws://localhost:8000/custom",
			path: "/ws/events",
			want: "ws://localhost:8000/custom/ws/events",
		},
		{
			name: "http base keeps origin only",
			base: "http://localhost:8000/api",
			path: "/ws/events",
			want: "ws://localhost:8000/ws/events",
		},
		{
			name: "https base becomes wss",
			base: "https://relay.example.com",
			path: "/ws/events",
			want: "wss://relay.example.com/ws/events",
		},
		{
			name: "https base with api prefix keeps origin only",
			base: "https://relay.example.com/api/v2",
			path: "/ws/events",
			want: "wss://relay.example.com/ws/events",
		},
		{
			name: "wss base without path",
			base: "wss://relay.example.com",
			path: "/ws/events",
			want: "wss://relay.example.com/ws/events",
		},
		{
			name: "ws base with trailing slash",
			base: "ws://localhost:8000/",
			path: "/ws/events",
			want: "ws://localhost:8000/ws/events",
		},
		{
			name: "ws base with trailing slash after matching path",
			base: "ws://localhost:8000/ws/events/",
			path: "/ws/events",
			want: "ws://localhost:8000/ws/events",
		},
		{
			name: "http base with port and no path",
			base: "http://localhost:8000",
			path: "/ws/events",
			want: "ws://localhost:8000/ws/events",
		},
		{
			name: "empty base falls back to relative path",
			base: "",
			path: "/ws/events",
			want: "/ws/events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tt.base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// same inputs, same output
			again, err := Resolve(tt.base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
	}{
		{"unsupported scheme", "ftp://localhost:8000"},
		{"missing host", "ws://"},
		{"not a url", "://bad"},
		{"relative base", "/just/a/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve(tt.base, "/ws/events")
			assert.Error(t, err)
		})
	}
}

func TestNewResolver(t *testing.T) {
	t.Parallel()

	r, err := NewResolver("http://localhost:8000/api")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/ws/events", r.Resolve("/ws/events"))

	r, err = NewResolver("")
	require.NoError(t, err)
	assert.Equal(t, "/ws/events", r.Resolve("/ws/events"))

	_, err = NewResolver("ftp://localhost:8000")
	assert.Error(t, err)
}
