package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/observability"
	"github.com/dmitrijs2005/kbcenter/internal/server/pagination"
)

const maxBodyBytes = 1 << 20

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type replyRequest struct {
	Content string `json:"content"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return oops.Code("BODY_MISSING").Wrap(common.ErrParamsAbsent)
		}
		return oops.Code("BODY_INVALID").With("decode_error", err.Error()).Wrap(common.ErrParse)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("ID_INVALID").With("id", raw).Wrap(common.ErrParse)
	}
	return id, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			logging.LogWarn(r.Context(), s.logger, "health check failed", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- accounts ---

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	account, err := s.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			s.metrics.RecordAuth("register", observability.AuthDuplicate)
		} else {
			s.metrics.RecordAuth("register", observability.AuthError)
		}
		writeError(r.Context(), w, s.logger, err)
		return
	}

	s.metrics.RecordAuth("register", observability.AuthSuccess)
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrWrongPassword) || errors.Is(err, common.ErrHashFormat) {
			s.metrics.RecordAuth("login", observability.AuthFailure)
		} else {
			s.metrics.RecordAuth("login", observability.AuthError)
		}
		writeError(r.Context(), w, s.logger, err)
		return
	}

	s.metrics.RecordAuth("login", observability.AuthSuccess)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// --- entries ---

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	list, err := s.entries.List(r.Context(), p)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if list == nil {
		list = []*models.Entry{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	entry, err := s.entries.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	var req models.NewEntry
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	entry, err := s.entries.Create(r.Context(), session, req)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	var req models.NewEntry
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	entry, err := s.entries.Update(r.Context(), session, id, req)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	if err := s.entries.Delete(r.Context(), session, id); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	u, err := s.entries.AttachmentUploadURL(r.Context(), session, id)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	u, err := s.entries.AttachmentDownloadURL(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- replies ---

func (s *Server) listReplies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	list, err := s.replies.List(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if list == nil {
		list = []*models.Reply{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) addReply(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	reply, err := s.replies.Add(r.Context(), session, models.NewReply{Content: req.Content, EntryID: id})
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (s *Server) updateReply(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	reply, err := s.replies.Update(r.Context(), session, id, req.Content)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) deleteReply(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	if err := s.replies.Delete(r.Context(), session, id); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
