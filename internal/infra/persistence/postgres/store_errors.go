package postgres

import (
	"database/sql/driver"
	"net"
	"strings"

	domainerrors "roster/internal/domain/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// isConnectivityError reports whether a database error means the store is
// unreachable, as opposed to a statement-level failure.
func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gorm.ErrInvalidDB) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// pgx and the pq wire surface connection failures as plain messages.
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "failed to connect") ||
		strings.Contains(errMsg, "conn closed")
}

// wrapStoreError classifies a repository error: connectivity failures become
// the service-level unavailable error, everything else keeps its cause.
func wrapStoreError(err error, message string) error {
	if isConnectivityError(err) {
		return domainerrors.ErrStoreUnavailable.WrapMessage(message)
	}

	return errors.Wrap(err, message)
}
