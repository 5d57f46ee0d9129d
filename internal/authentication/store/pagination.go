package store

import (
	"math"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// maxBatchSize is the hard cap on EmailVerificationStore.InsertBatch.
const maxBatchSize = 1000

// warnLimitThreshold is where Index/IndexCursor accept but warn rather than
// reject a caller-supplied page size.
const warnLimitThreshold = 1000

// Cursor identifies the last row of a previous cursor-paginated page: the
// (created_at, id) pair strictly-greater comparisons are anchored against.
type Cursor struct {
	CreatedAt int64 // unix seconds
	ID        string
}

// ValidateQueryBounds checks limit/offset as received off the wire — an
// unsigned 64-bit quantity, since a client can request a value a Go int64
// cannot represent — and converts them down to the int64 the store layer
// works in. limit>1000 is accepted with warn=true rather than rejected.
func ValidateQueryBounds(limit, offset uint64) (l, o int64, warn bool, err *domain.Error) {
	if limit > math.MaxInt64 || offset > math.MaxInt64 {
		return 0, 0, false, domain.ValidationErr("pagination", "pagination value too large")
	}
	return int64(limit), int64(offset), limit > warnLimitThreshold, nil
}
