package weir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURIHTTP(t *testing.T) {
	u, err := ParseURI("https://Example.COM/a/b?x=1#frag")
	assert.NoError(t, err)
	assert.Equal(t, SchemeHTTPS, u.Scheme())
	assert.Equal(t, "example.com", u.Host())
	assert.Equal(t, "/a/b", u.Path())
	assert.Equal(t, "frag", u.Fragment())
	assert.True(t, u.CanBeABase())
}

func TestParseURIMailbox(t *testing.T) {
	cases := []string{
		"mailto:user@example.com",
		"user@example.com",
		"mailto:user@example.com?subject=hi&body=there",
	}
	for _, s := range cases {
		u, err := ParseURI(s)
		assert.NoError(t, err, s)
		assert.Equal(t, SchemeMail, u.Scheme())
		assert.Equal(t, "user@example.com", u.MailAddress())
		assert.True(t, u.IsMail())
		assert.False(t, u.CanBeABase())
	}
}

func TestParseURITel(t *testing.T) {
	u, err := ParseURI("tel:+1-555-0100")
	assert.NoError(t, err)
	assert.Equal(t, SchemeTel, u.Scheme())
	assert.True(t, u.IsTel())
	assert.Equal(t, "+1-555-0100", u.TelNumber())
}

func TestParseURIFile(t *testing.T) {
	u, err := ParseURI("file:///tmp/a.html#section")
	assert.NoError(t, err)
	assert.True(t, u.IsFile())
	assert.Equal(t, "/tmp/a.html", u.Path())
	assert.Equal(t, "section", u.Fragment())
}

func TestParseURIEmptyHostRejected(t *testing.T) {
	_, err := ParseURI("https:///path")
	assert.Error(t, err)
	var ce *CheckError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, KindURLEmptyHost, ce.Kind)
}

func TestURIIPClass(t *testing.T) {
	cases := []struct {
		uri   string
		class IPClass
	}{
		{"http://127.0.0.1/", IPLoopback},
		{"http://localhost/", IPLoopback},
		{"http://10.0.0.5/", IPPrivate},
		{"http://192.168.1.1/", IPPrivate},
		{"http://169.254.1.1/", IPLinkLocal},
		{"http://8.8.8.8/", IPPublic},
		{"http://example.com/", IPNone},
	}
	for _, tt := range cases {
		u, err := ParseURI(tt.uri)
		assert.NoError(t, err, tt.uri)
		assert.Equal(t, tt.class, u.IPClass(), tt.uri)
	}
}

func TestURIWithFragment(t *testing.T) {
	u, err := ParseURI("https://example.com/page")
	assert.NoError(t, err)
	withFrag := u.WithFragment("top")
	assert.Equal(t, "top", withFrag.Fragment())
	assert.Empty(t, u.Fragment())
}

func TestURIPathSegments(t *testing.T) {
	u, err := ParseURI("https://example.com/a//b/c/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, u.PathSegments())
}

func TestURIHostKeyLowercased(t *testing.T) {
	u, err := ParseURI("https://EXAMPLE.com/")
	assert.NoError(t, err)
	assert.Equal(t, "example.com", u.HostKey())
}
