package ports

import (
	"context"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

// AuditRecorder accepts security events for out-of-band persistence.
// Implementations must never block the caller or surface write failures;
// auditing is advisory, not transactional.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}
