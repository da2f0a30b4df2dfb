// Package reposvc implements the repository-hosting-service API fallback
// (§4.9): a secondary validator invoked when a direct HTTP fetch fails on a
// known repository-hosting host, using that host's REST API instead.
package reposvc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/go-github/v58/github"
)

// KnownHosts are the hostnames this fallback recognizes (§4.9).
var KnownHosts = map[string]struct{}{
	"github.com":               {},
	"www.github.com":           {},
	"raw.githubusercontent.com": {},
}

// IsKnownHost reports whether host is a recognized repository-hosting
// hostname.
func IsKnownHost(host string) bool {
	_, ok := KnownHosts[strings.ToLower(host)]
	return ok
}

// Outcome is the fallback's verdict, mapped by the caller into a Status.
type Outcome int

// Possible outcomes.
const (
	// OutcomeOK means the repository exists and is reachable (public or
	// private); treat the original URI as Ok(200).
	OutcomeOK Outcome = iota
	// OutcomeInvalidRepoPath means the repository is public and exists,
	// but the original URI had path segments beyond owner/repo that the
	// API cannot verify.
	OutcomeInvalidRepoPath
	// OutcomeNotFound means the repository itself does not exist.
	OutcomeNotFound
	// OutcomeMissingToken means no API token was configured, so the
	// fallback could not even attempt the call.
	OutcomeMissingToken
)

// Fallback calls the GitHub REST API to validate a repository URL that a
// direct fetch already failed on.
type Fallback struct {
	client *github.Client
	token  string
}

// NewFallback builds a Fallback. token may be empty, in which case Check
// always returns OutcomeMissingToken without making a network call.
func NewFallback(token string) *Fallback {
	f := &Fallback{token: token}
	if token != "" {
		f.client = github.NewClient(&http.Client{Transport: &bearerTransport{token: token}})
	}
	return f
}

// Check extracts owner/repo from the first two non-empty slash-delimited
// segments of path and queries /repos/{owner}/{repo} (§4.9). A public
// repository reached through a path with segments beyond owner/repo yields
// OutcomeInvalidRepoPath.
func (f *Fallback) Check(ctx context.Context, path string) (Outcome, error) {
	if f.client == nil {
		return OutcomeMissingToken, nil
	}

	owner, repo, extra, ok := splitOwnerRepo(path)
	if !ok {
		return OutcomeNotFound, nil
	}

	r, _, err := f.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return OutcomeNotFound, nil
		}
		return OutcomeNotFound, err
	}

	if r.GetPrivate() {
		return OutcomeOK, nil
	}
	if extra {
		return OutcomeInvalidRepoPath, nil
	}
	return OutcomeOK, nil
}

// splitOwnerRepo extracts the first two non-empty slash-delimited segments
// of path as owner/repo, reporting whether any segments remain after them.
func splitOwnerRepo(path string) (owner, repo string, extra bool, ok bool) {
	segs := make([]string, 0, 4)
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 2 {
		return "", "", false, false
	}
	return segs[0], segs[1], len(segs) > 2, true
}

// bearerTransport attaches an Authorization header carrying token to every
// request, the minimal stand-in for golang.org/x/oauth2's static token
// source this repo does not otherwise depend on.
type bearerTransport struct {
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(clone)
}
