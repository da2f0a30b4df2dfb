package weir

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUsesDefaultConfigWhenNil(t *testing.T) {
	w := New(nil)
	assert.NotNil(t, w.Config)
	assert.True(t, w.LoggerEnabled)
	assert.NotNil(t, w.Logger())
	assert.NotNil(t, w.Filter())
	assert.NotNil(t, w.Pool())
	assert.NotNil(t, w.Feed())
}

func TestWeirCheckRunsRequestsThroughPipeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewConfig()
	c.ExcludeLoopbackIPs = false
	w := New(c)
	defer w.Close()

	u, err := ParseURI(srv.URL + "/")
	assert.NoError(t, err)

	reqs := make(chan Request, 1)
	reqs <- Request{URI: u, Source: "test"}
	close(reqs)

	report, err := w.Check(context.Background(), reqs)
	assert.NoError(t, err)
	assert.NotNil(t, report)
	assert.Equal(t, 1, report.Stats.Successful)
}

func TestWeirCloseDisconnectsFeedSubscribers(t *testing.T) {
	w := New(nil)
	assert.NoError(t, w.Close())
}
