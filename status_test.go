package weir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPredicates(t *testing.T) {
	assert.True(t, Ok(200).IsSuccess())
	assert.True(t, Redirected(301, []string{"https://example.com/x"}).IsSuccess())
	assert.True(t, ErrorStatus(&CheckError{Kind: KindDNS}).IsError())
	assert.True(t, UnknownStatusCode(999).IsError())
	assert.True(t, Excluded().IsExcluded())
	assert.True(t, Unsupported("scheme ftp is not checked").IsUnsupported())
	assert.True(t, Timeout(nil).IsTimeout())
}

func TestStatusCacheRoundTrip(t *testing.T) {
	cases := []Status{
		Ok(200),
		Redirected(302, nil),
		ErrorStatus(&CheckError{Kind: KindConnectionRefused}),
		Excluded(),
		Unsupported("ftp"),
	}
	for _, s := range cases {
		cs := ToCacheStatus(s)
		cached := cs.ToStatus()
		assert.Equal(t, s.IsSuccess(), cached.IsSuccess())
		assert.Equal(t, s.IsError(), cached.IsError())
		assert.Equal(t, s.IsExcluded(), cached.IsExcluded())
		assert.Equal(t, s.IsUnsupported(), cached.IsUnsupported())
	}
}

func TestCacheStatusLossyError(t *testing.T) {
	s := ErrorStatus(&CheckError{Kind: KindTimeout})
	cs := ToCacheStatus(s)
	assert.Equal(t, CacheError, cs.Kind)
	assert.False(t, cs.hasStatus)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK (200)", Ok(200).String())
	assert.Equal(t, "Excluded", Excluded().String())
	assert.Contains(t, ErrorStatus(&CheckError{Kind: KindDNS, Detail: "dns fail"}).String(), "dns fail")
}
