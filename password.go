package signon

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// PHC strings encode salt and key as unpadded standard base64.
var b64 = base64.RawStdEncoding

// PasswordHasher computes and verifies argon2id digests. Cost parameters are
// fixed at construction; digests record their own parameters so they keep
// verifying after the defaults change. A weighted semaphore bounds how many
// derivations run at once, so a burst of sign-ins cannot starve every other
// request. Derivations are never aborted mid-flight: apply request timeouts
// before calling Verify, not around it.
type PasswordHasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32

	sem *semaphore.Weighted

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordHasher returns a hasher with the recommended argon2id
// parameters: 64 MiB memory, 1 pass, 4 lanes.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
		sem:     semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

func (h *PasswordHasher) ensureSem() *semaphore.Weighted {
	if h.sem == nil {
		h.sem = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	}
	return h.sem
}

// Hash derives a digest for password. The error return covers failures
// before derivation starts (context cancelled while waiting for a slot,
// salt generation).
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	if err := h.ensureSem().Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	h.sem.Release(1)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Time, h.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether password matches digest. A malformed digest and a
// wrong password take the same return path: (false, nil). The error return
// is reserved for pre-derivation failures.
func (h *PasswordHasher) Verify(ctx context.Context, digest, password string) (bool, error) {
	memory, time, threads, salt, key, ok := decodeDigest(digest)
	if !ok {
		return false, nil
	}

	if err := h.ensureSem().Acquire(ctx, 1); err != nil {
		return false, err
	}
	derived := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// VerifyDummy burns one full-cost verification against a reference digest.
// Sign-in paths that reject before reaching a real digest call this so an
// unknown email costs the same as a wrong password.
func (h *PasswordHasher) VerifyDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		digest, err := h.Hash(ctx, "signon-reference-digest")
		if err == nil {
			h.dummy = digest
		}
	})
	if h.dummy != "" {
		h.Verify(ctx, h.dummy, password)
	}
}

// decodeDigest parses a PHC-formatted argon2id digest.
func decodeDigest(digest string) (memory, time uint32, threads uint8, salt, key []byte, ok bool) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return 0, 0, 0, nil, nil, false
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}
	key, err = b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, false
	}
	return memory, time, threads, salt, key, true
}
