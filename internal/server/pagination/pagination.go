// Package pagination turns query parameters into a limit/offset window.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
)

const (
	LimitParam  = "limit"
	OffsetParam = "offset"
)

// Pagination is a listing window. A nil Limit means unbounded.
type Pagination struct {
	Limit  *int
	Offset int
}

// Default is the window used when no paging parameters were given.
func Default() Pagination {
	return Pagination{}
}

// Parse extracts limit and offset from params. Unrelated keys are ignored.
//
// With neither key present the Default window is returned. With only one of
// them present Parse fails with common.ErrParamsAbsent. A value that is not a
// non-negative integer fails with common.ErrParse; the strconv error stays in
// the chain.
func Parse(params map[string]string) (Pagination, error) {
	limitRaw, hasLimit := params[LimitParam]
	offsetRaw, hasOffset := params[OffsetParam]

	switch {
	case !hasLimit && !hasOffset:
		return Default(), nil
	case !hasLimit || !hasOffset:
		return Pagination{}, oops.Code(common.ErrParamsAbsent.Code()).
			With("has_limit", hasLimit).
			With("has_offset", hasOffset).
			Wrap(common.ErrParamsAbsent)
	}

	limit, err := parseNonNegative(LimitParam, limitRaw)
	if err != nil {
		return Pagination{}, err
	}
	offset, err := parseNonNegative(OffsetParam, offsetRaw)
	if err != nil {
		return Pagination{}, err
	}

	return Pagination{Limit: &limit, Offset: offset}, nil
}

// FromQuery applies Parse to the first value of every query key.
func FromQuery(q url.Values) (Pagination, error) {
	params := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return Parse(params)
}

func parseNonNegative(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, oops.Code(common.ErrParse.Code()).
			With("param", name).
			With("value", raw).
			Wrap(fmt.Errorf("%w: %s: %w", common.ErrParse, name, err))
	}
	if n < 0 {
		return 0, oops.Code(common.ErrParse.Code()).
			With("param", name).
			With("value", raw).
			Wrap(fmt.Errorf("%w: %s must not be negative", common.ErrParse, name))
	}
	return n, nil
}
