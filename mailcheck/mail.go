// Package mailcheck implements the mail reachability probe referenced by
// §4.1/§4.7: given a mailbox address, decide whether it is worth treating
// as reachable. No library in the retrieved corpus offers SMTP-level
// mailbox verification, so this is built directly on net/mail,
// net.LookupMX, and net/smtp (documented as a standard-library exception
// in DESIGN.md).
package mailcheck

import (
	"context"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// Verdict is the probe's outcome.
type Verdict int

// Possible verdicts. Only VerdictInvalid is treated as unreachable by the
// checker (§4.7: "any result other than the probe's 'invalid' verdict is
// Ok(200)").
const (
	VerdictReachable Verdict = iota
	VerdictUnknown            // MX lookup or SMTP probe inconclusive (greylisting, policy refusal, ...)
	VerdictInvalid
)

// Prober runs the reachability probe against a single mailbox.
type Prober struct {
	// HELOName is the hostname presented in the SMTP HELO/EHLO command.
	HELOName string
	// Timeout bounds the DNS lookup and SMTP dialog combined.
	Timeout time.Duration
}

// NewProber returns a Prober with sane defaults.
func NewProber() *Prober {
	return &Prober{HELOName: "localhost", Timeout: 10 * time.Second}
}

// Check validates address's syntax, resolves its domain's MX records, and
// attempts a minimal SMTP RCPT TO dialog to decide reachability.
func (p *Prober) Check(ctx context.Context, address string) (Verdict, error) {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return VerdictInvalid, nil
	}

	at := strings.LastIndexByte(addr.Address, '@')
	if at < 0 {
		return VerdictInvalid, nil
	}
	domain := addr.Address[at+1:]

	deadline := time.Now().Add(p.Timeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	mxs, err := net.DefaultResolver.LookupMX(dialCtx, domain)
	if err != nil || len(mxs) == 0 {
		return VerdictUnknown, nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(mxs[0].Host, "25"))
	if err != nil {
		// Most networks block outbound SMTP; a dial failure here is
		// inconclusive, not a verdict that the address is invalid.
		return VerdictUnknown, nil
	}
	defer conn.Close()
	conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, mxs[0].Host)
	if err != nil {
		return VerdictUnknown, nil
	}
	defer client.Close()

	if err := client.Hello(p.HELOName); err != nil {
		return VerdictUnknown, nil
	}
	if err := client.Mail("probe@" + p.HELOName); err != nil {
		return VerdictUnknown, nil
	}
	if err := client.Rcpt(addr.Address); err != nil {
		return VerdictInvalid, nil
	}
	return VerdictReachable, nil
}
