package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ObjectStore stores payment-proof images. Save returns a URL an admin can
// open to review the object; Delete removes it after the proof is resolved.
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProofKey builds the object key for a member's proof upload:
// proofs/<member-id>-<timestamp>-<suffix>.
func ProofKey(memberID uint, now time.Time) string {
	return fmt.Sprintf("proofs/%d-%d-%s", memberID, now.Unix(), uuid.NewString()[:8])
}
