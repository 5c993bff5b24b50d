package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/logging"
)

var statusByKind = map[*common.Kind]int{
	common.ErrParamsAbsent:        http.StatusBadRequest,
	common.ErrParse:               http.StatusBadRequest,
	common.ErrValidation:          http.StatusBadRequest,
	common.ErrHashFormat:          http.StatusUnauthorized,
	common.ErrWrongPassword:       http.StatusUnauthorized,
	common.ErrFailTokenDecryption: http.StatusUnauthorized,
	common.ErrUnauthorized:        http.StatusForbidden,
	common.ErrNotFound:            http.StatusNotFound,
	common.ErrDuplicateAccount:    http.StatusConflict,
	common.ErrQuery:               http.StatusUnprocessableEntity,
}

// StatusFor returns the HTTP status for err's kind.
func StatusFor(err error) int {
	if status, ok := statusByKind[common.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError renders err as {"error": ..., "code": ...}. Only the kind's
// message leaves the process; the full error is logged.
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	kind := common.KindOf(err)
	status := StatusFor(err)

	// a corrupt stored hash must not read differently from a bad password
	if kind == common.ErrHashFormat {
		kind = common.ErrWrongPassword
	}

	if status >= http.StatusInternalServerError {
		logging.LogError(ctx, logger, "request failed", err)
	} else {
		logger.Debug(ctx, "request rejected", "status", status, "code", common.ErrorCode(err))
	}

	writeJSON(w, status, errorBody{Error: kind.Error(), Code: kind.Code()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
