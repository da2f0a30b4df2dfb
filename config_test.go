package weir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, []string{"http", "https"}, c.Schemes)
	assert.Equal(t, "GET", c.Method)
	assert.Equal(t, 5, c.MaxRedirects)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, time.Second, c.RetryWaitTime)
	assert.Equal(t, 20*time.Second, c.Timeout)
	assert.Equal(t, 128, c.MaxConcurrency)
	assert.Equal(t, 10, c.MaxConcurrentPerHost)
	assert.True(t, c.CacheEnabled)
	assert.True(t, c.ExcludeLoopbackIPs)
	assert.Equal(t, 10*time.Second, c.ConnectTimeout)
	assert.Equal(t, 60*time.Second, c.TCPKeepAlive)
	assert.False(t, c.CheckExampleDomains)
}

func TestNewConfigFromMapOverridesDefaults(t *testing.T) {
	c, err := NewConfigFromMap(map[string]interface{}{
		"Timeout":             "5s",
		"MaxRetries":          1,
		"UserAgent":           "custom/1",
		"IncludePatterns":     []string{"^https://keep\\."},
		"ExcludePatterns":     []string{"example\\.org"},
		"ExcludePathPatterns": []string{"^/admin"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 1, c.MaxRetries)
	assert.Equal(t, "custom/1", c.UserAgent)
	assert.Len(t, c.IncludePatterns, 1)
	assert.Len(t, c.ExcludePatterns, 1)
	assert.Len(t, c.ExcludePathPatterns, 1)
	// Unset fields keep the default.
	assert.Equal(t, 128, c.MaxConcurrency)
}

func TestNewConfigFromMapRejectsBadPattern(t *testing.T) {
	_, err := NewConfigFromMap(map[string]interface{}{
		"ExcludePatterns": []string{"("},
	})
	assert.Error(t, err)
	var ce *CheckError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, KindConfigUnparseable, ce.Kind)
}

func TestConfigValidate(t *testing.T) {
	c := NewConfig()
	assert.NoError(t, c.Validate())

	c.ExcludeMail = true
	c.IncludeMail = true
	assert.Error(t, c.Validate())

	c2 := NewConfig()
	c2.MaxConcurrentPerHost = 200
	c2.MaxConcurrency = 128
	assert.Error(t, c2.Validate())
}

func TestConfigAcceptsCode(t *testing.T) {
	c := NewConfig()
	assert.True(t, c.acceptsCode(200))
	assert.True(t, c.acceptsCode(299))
	assert.False(t, c.acceptsCode(404))

	c.AcceptedStatusCodes = map[int]struct{}{200: {}, 403: {}}
	assert.True(t, c.acceptsCode(403))
	assert.False(t, c.acceptsCode(299))
}
