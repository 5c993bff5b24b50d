package common

import (
	"errors"

	"github.com/samber/oops"
)

// Kind is a node of the error taxonomy. Kinds are compared by identity with
// errors.Is; a kind created with a parent also matches its parent, so
// errors.Is(ErrNotFound, ErrQuery) holds.
type Kind struct {
	code    string
	message string
	parent  *Kind
}

func newKind(code, message string, parent *Kind) *Kind {
	return &Kind{code: code, message: message, parent: parent}
}

// Error returns the user-facing message of the kind.
func (k *Kind) Error() string { return k.message }

// Code returns the stable machine-readable code of the kind.
func (k *Kind) Code() string { return k.code }

// Is reports whether target is one of k's ancestors.
func (k *Kind) Is(target error) bool {
	for p := k.parent; p != nil; p = p.parent {
		if p == target {
			return true
		}
	}
	return false
}

var (
	// Pagination errors.
	ErrParamsAbsent = newKind("PARAMS_ABSENT", "Missing required parameter", nil)
	ErrParse        = newKind("PARSE_ERROR", "Invalid parameter", nil)

	// Credential and session errors.
	ErrHashFormat          = newKind("HASH_FORMAT", "Unable to verify password", nil)
	ErrWrongPassword       = newKind("WRONG_PASSWORD", "Invalid email/password combination", nil)
	ErrFailTokenDecryption = newKind("FAIL_TOKEN_DECRYPTION", "Unable to decrypt token", nil)
	ErrKeyMaterial         = newKind("KEY_MATERIAL", "Invalid token key material", nil)

	// Ownership errors.
	ErrUnauthorized = newKind("UNAUTHORIZED", "Unauthorized access to modify content", nil)

	// Storage errors. ErrNotFound is a sub-kind of ErrQuery.
	ErrQuery            = newKind("QUERY_ERROR", "Unable to proceed with the query", nil)
	ErrNotFound         = newKind("NOT_FOUND", "Requested resource not found", ErrQuery)
	ErrDuplicateAccount = newKind("DUPLICATE_ACCOUNT", "Account already exists", nil)

	ErrValidation = newKind("VALIDATION", "Invalid input", nil)
	ErrInternal   = newKind("INTERNAL", "Internal server error", nil)
)

// kindsBySpecificity lists every kind, children before parents.
var kindsBySpecificity = []*Kind{
	ErrParamsAbsent,
	ErrParse,
	ErrHashFormat,
	ErrWrongPassword,
	ErrFailTokenDecryption,
	ErrKeyMaterial,
	ErrUnauthorized,
	ErrNotFound,
	ErrDuplicateAccount,
	ErrQuery,
	ErrValidation,
	ErrInternal,
}

// KindOf returns the most specific kind found in err's chain, or ErrInternal
// when the chain carries none.
func KindOf(err error) *Kind {
	for _, k := range kindsBySpecificity {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// ErrorCode returns the oops code attached to err, or the code of its kind
// when no oops code is present.
func ErrorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return KindOf(err).Code()
}
