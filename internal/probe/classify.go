package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"

	"github.com/tn3w/statussentinel/internal/domain"
)

// classify maps a transport error to one of the down-reason classes. The
// timeout check runs first: deadline errors also match net.Error and would
// otherwise be swallowed by the generic cases.
func classify(err error) (domain.Reason, string) {
	var (
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
		recErr  tls.RecordHeaderError
		unkCA   x509.UnknownAuthorityError
		hostErr x509.HostnameError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return domain.ReasonTimeout, err.Error()
	case errors.As(err, &dnsErr):
		return domain.ReasonDNS, dnsErr.Error()
	case errors.Is(err, syscall.ECONNREFUSED):
		return domain.ReasonConnectionRefused, err.Error()
	case errors.As(err, &certErr), errors.As(err, &recErr),
		errors.As(err, &unkCA), errors.As(err, &hostErr):
		return domain.ReasonTLS, err.Error()
	}
	return domain.ReasonProbeError, err.Error()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
