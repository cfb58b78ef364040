package fixtures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	consul "github.com/hashicorp/consul/api"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsulStoreDeletesPrefixTree(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithResponse(200, nil, []byte("true")))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		config := consul.DefaultConfig()
		config.Address = strings.TrimPrefix(server.URL, "http://")
		config.Scheme = "http"
		store, err := NewConsulStore(config, "notes/")
		require.NoError(t, err)
		assert.Equal(t, "consul:notes/", store.Name())

		require.NoError(t, store.Reset(context.Background()))

		r := <-requests
		assert.Equal(t, http.MethodDelete, r.Request.Method)
		assert.Equal(t, "/v1/kv/notes/", r.Request.URL.Path)
		_, recursive := r.Request.URL.Query()["recurse"]
		assert.True(t, recursive)
	})
}

func TestConsulStoreReportsServerError(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(500), func(server *httptest.Server) {
		config := consul.DefaultConfig()
		config.Address = strings.TrimPrefix(server.URL, "http://")
		config.Scheme = "http"
		store, err := NewConsulStore(config, "")
		require.NoError(t, err)
		assert.Equal(t, "consul:/", store.Name())

		assert.Error(t, store.Reset(context.Background()))
	})
}
