package mailcheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewProberDefaults(t *testing.T) {
	p := NewProber()
	assert.Equal(t, "localhost", p.HELOName)
	assert.Equal(t, 10*time.Second, p.Timeout)
}

func TestCheckRejectsMalformedAddress(t *testing.T) {
	p := NewProber()
	verdict, err := p.Check(context.Background(), "not-an-address")
	assert.NoError(t, err)
	assert.Equal(t, VerdictInvalid, verdict)
}

func TestCheckRejectsAddressWithoutDomain(t *testing.T) {
	p := NewProber()
	verdict, err := p.Check(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, VerdictInvalid, verdict)
}

func TestCheckUnknownDomainIsUnknownNotInvalid(t *testing.T) {
	// A domain with no MX records (and unlikely to exist at all) must
	// come back Unknown, not Invalid: an inconclusive DNS lookup is not
	// proof the mailbox is unreachable.
	p := NewProber()
	verdict, err := p.Check(context.Background(), "user@nonexistent-domain-for-weir-tests.invalid")
	assert.NoError(t, err)
	assert.Equal(t, VerdictUnknown, verdict)
}
