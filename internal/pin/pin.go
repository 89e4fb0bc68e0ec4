package pin

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sync/semaphore"
)

// DefaultReferenceDigest is the derived digest of the deployed PIN.
// Changing the PIN means running `videogate hash` and redeploying.
const DefaultReferenceDigest = "0df727a50f5e4826c0298aa741030c8771c9394c3f798ad994e10277c5869a07"

const (
	Salt       = "static-site-salt-v1"
	Pepper     = "pepper"
	Iterations = 150000
	KeyLength  = 32
)

var ErrInvalidDigest = errors.New("reference digest must be 64 hex characters")

// DeriveHash returns the lowercase hex PBKDF2-SHA256 digest of pin.
func DeriveHash(pin string) string {
	key := pbkdf2.Key([]byte(pin+Salt), []byte(Pepper), Iterations, KeyLength, sha256.New)
	return hex.EncodeToString(key)
}

type Deriver struct {
	slots  *semaphore.Weighted
	derive func(string) string
}

// NewDeriver bounds concurrent derivations to maxConcurrent, or the CPU
// count when maxConcurrent is not positive.
func NewDeriver(maxConcurrent int) *Deriver {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &Deriver{
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
		derive: DeriveHash,
	}
}

type derived struct {
	digest string
	err    error
}

// Derive computes the digest on its own goroutine. A cancelled context is
// reported as an error; the background computation is left to finish and
// release its slot.
func (d *Deriver) Derive(ctx context.Context, pin string) (string, error) {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire derivation slot: %w", err)
	}

	done := make(chan derived, 1)
	go func() {
		defer d.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- derived{err: fmt.Errorf("derive hash: %v", r)}
			}
		}()
		done <- derived{digest: d.derive(pin)}
	}()

	select {
	case res := <-done:
		return res.digest, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("derive hash: %w", ctx.Err())
	}
}

type Checker struct {
	deriver   *Deriver
	reference []byte
}

func NewChecker(deriver *Deriver, referenceDigest string) (*Checker, error) {
	if err := ValidateDigest(referenceDigest); err != nil {
		return nil, err
	}
	return &Checker{deriver: deriver, reference: []byte(referenceDigest)}, nil
}

// CheckPin reports whether pin derives to the reference digest. Any
// derivation failure is returned as an error with a false result.
func (c *Checker) CheckPin(ctx context.Context, pin string) (bool, error) {
	digest, err := c.deriver.Derive(ctx, pin)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(digest), c.reference) == 1, nil
}

func ValidateDigest(digest string) error {
	if len(digest) != hex.EncodedLen(KeyLength) {
		return ErrInvalidDigest
	}
	for _, r := range digest {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ErrInvalidDigest
		}
	}
	return nil
}
