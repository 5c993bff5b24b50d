package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/kbcenter/internal/common"
)

const (
	algorithmID = "argon2id"

	minMemoryKiB   uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLen     uint32 = 32
	minKeyLen      uint32 = 16
)

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are the costs used for every stored credential:
// 64 MiB of memory, 3 passes, 2 lanes, a 256-bit salt and a 256-bit key.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 2,
	SaltLength:  32,
	KeyLength:   32,
}

// Argon2Hasher hashes and verifies passwords as PHC strings:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
//
// Salt and hash use unpadded standard base64. The hasher is stateless apart
// from its parameters and safe for concurrent use.
type Argon2Hasher struct {
	params Params
}

// NewArgon2Hasher validates p and returns a hasher using it.
func NewArgon2Hasher(p Params) (*Argon2Hasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Argon2Hasher{params: p}, nil
}

func (p Params) validate() error {
	switch {
	case p.Memory < minMemoryKiB:
		return fmt.Errorf("argon2 memory must be at least %d KiB", minMemoryKiB)
	case p.Time < minTime:
		return fmt.Errorf("argon2 time must be at least %d", minTime)
	case p.Parallelism < minParallelism:
		return fmt.Errorf("argon2 parallelism must be at least %d", minParallelism)
	case p.SaltLength < minSaltLen:
		return fmt.Errorf("argon2 salt must be at least %d bytes", minSaltLen)
	case p.KeyLength < minKeyLen:
		return fmt.Errorf("argon2 key must be at least %d bytes", minKeyLen)
	}
	return nil
}

// Hash derives an argon2id hash of plaintext with a fresh random salt.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", oops.Code("PASSWORD_EMPTY").Wrap(common.ErrValidation)
	}

	salt, err := common.GenerateRandBytes(int(h.params.SaltLength))
	if err != nil {
		return "", oops.Code("PASSWORD_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	defer common.WipeByteArray(key)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches encoded. The parameters are read
// from encoded, not from the hasher. A mismatch is (false, nil); an encoding
// that cannot be parsed fails with common.ErrHashFormat.
func (h *Argon2Hasher) Verify(encoded, plaintext string) (bool, error) {
	phc, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), phc.salt, phc.time, phc.memory, phc.parallelism, uint32(len(phc.hash)))
	defer common.WipeByteArray(computed)

	return subtle.ConstantTimeCompare(computed, phc.hash) == 1, nil
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func hashFormatError(reason string) error {
	return oops.Code(common.ErrHashFormat.Code()).With("reason", reason).Wrap(common.ErrHashFormat)
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, hashFormatError("segment count")
	}
	if parts[1] != algorithmID {
		return nil, hashFormatError("algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, hashFormatError("version missing")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, hashFormatError("version")
	}

	phc := &parsedPHC{}
	if err := phc.parseParams(parts[3]); err != nil {
		return nil, err
	}

	var err error
	if phc.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, hashFormatError("salt encoding")
	}
	if len(phc.salt) < int(minSaltLen) {
		return nil, hashFormatError("salt length")
	}
	if phc.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, hashFormatError("hash encoding")
	}
	if len(phc.hash) < int(minKeyLen) {
		return nil, hashFormatError("hash length")
	}

	return phc, nil
}

func (p *parsedPHC) parseParams(s string) error {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return hashFormatError("params")
	}

	seen := make(map[string]bool, 3)
	for _, field := range fields {
		name, raw, ok := strings.Cut(field, "=")
		if !ok || seen[name] {
			return hashFormatError("params")
		}
		seen[name] = true

		switch name {
		case "m":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minMemoryKiB {
				return hashFormatError("memory")
			}
			p.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minTime {
				return hashFormatError("time")
			}
			p.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil || uint8(v) < minParallelism {
				return hashFormatError("parallelism")
			}
			p.parallelism = uint8(v)
		default:
			return hashFormatError("params")
		}
	}
	return nil
}
