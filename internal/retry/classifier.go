package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQL Server and Azure SQL error numbers that indicate a temporary condition.
var transientErrorNumbers = map[int32]bool{
	-2:    true, // client timeout
	64:    true, // connection dropped during login
	233:   true, // no process is on the other end of the pipe
	1205:  true, // deadlock victim
	4060:  true, // cannot open database (often mid-failover)
	4221:  true, // login to read-secondary failed during redo
	10053: true, // transport-level error, connection aborted
	10054: true, // transport-level error, connection reset
	10060: true, // network timeout
	10928: true, // resource limit reached
	10929: true, // resource governance
	40143: true,
	40197: true, // service error processing request
	40501: true, // service busy
	40540: true,
	40613: true, // database not currently available
	49918: true,
	49919: true,
	49920: true,
}

// SQLServerErrorClassifier implements bcpstage.ErrorClassifier for go-mssqldb errors.
type SQLServerErrorClassifier struct{}

// NewSQLServerErrorClassifier creates a new SQL Server error classifier.
func NewSQLServerErrorClassifier() *SQLServerErrorClassifier {
	return &SQLServerErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *SQLServerErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		if transientErrorNumbers[sqlErr.Number] {
			return true
		}
		for _, e := range sqlErr.All {
			if transientErrorNumbers[e.Number] {
				return true
			}
		}
		return false
	}

	if isNetworkError(err) {
		return true
	}
	return isConnectionMessage(err.Error())
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH)
	}
	return false
}

func isConnectionMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"broken pipe",
		"unexpected eof",
		"server is not ready",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
