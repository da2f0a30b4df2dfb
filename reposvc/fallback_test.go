package reposvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKnownHost(t *testing.T) {
	assert.True(t, IsKnownHost("github.com"))
	assert.True(t, IsKnownHost("GitHub.com"))
	assert.False(t, IsKnownHost("gitlab.com"))
}

func TestSplitOwnerRepo(t *testing.T) {
	owner, repo, extra, ok := splitOwnerRepo("/aofei/air")
	assert.True(t, ok)
	assert.Equal(t, "aofei", owner)
	assert.Equal(t, "air", repo)
	assert.False(t, extra)

	_, _, _, ok = splitOwnerRepo("/aofei")
	assert.False(t, ok)

	_, _, extra, ok = splitOwnerRepo("/aofei/air/blob/main/README.md")
	assert.True(t, ok)
	assert.True(t, extra)
}

func TestFallbackWithoutTokenReturnsMissingToken(t *testing.T) {
	f := NewFallback("")
	outcome, err := f.Check(context.Background(), "/aofei/air")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeMissingToken, outcome)
}

// newFallbackAgainst points a Fallback's GitHub client at a test server
// instead of the real API, so Check can be exercised without a network call.
func newFallbackAgainst(t *testing.T, srv *httptest.Server) *Fallback {
	t.Helper()
	f := NewFallback("fake-token")
	base, err := url.Parse(srv.URL + "/")
	assert.NoError(t, err)
	f.client.BaseURL = base
	return f
}

func TestFallbackPublicRepoExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"private": false})
	}))
	defer srv.Close()

	f := newFallbackAgainst(t, srv)
	outcome, err := f.Check(context.Background(), "/aofei/air")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)
}

func TestFallbackPublicRepoWithExtraPathSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"private": false})
	}))
	defer srv.Close()

	f := newFallbackAgainst(t, srv)
	outcome, err := f.Check(context.Background(), "/aofei/air/blob/main/README.md")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeInvalidRepoPath, outcome)
}

func TestFallbackPrivateRepoIsOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"private": true})
	}))
	defer srv.Close()

	f := newFallbackAgainst(t, srv)
	outcome, err := f.Check(context.Background(), "/aofei/air/blob/main/README.md")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome, "a private repo is OK even with extra path segments")
}

func TestFallbackNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "Not Found"})
	}))
	defer srv.Close()

	f := newFallbackAgainst(t, srv)
	outcome, err := f.Check(context.Background(), "/aofei/does-not-exist")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, outcome)
}

func TestFallbackInvalidPathIsNotFound(t *testing.T) {
	f := NewFallback("fake-token")
	outcome, err := f.Check(context.Background(), "/justowner")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, outcome)
}
