package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
	"mcq-studio/internal/workbook"
)

type SessionHandler struct {
	service   *app.QuizService
	maxUpload int64
	validate  *validator.Validate
}

func NewSessionHandler(service *app.QuizService, maxUpload int64) *SessionHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &SessionHandler{
		service:   service,
		maxUpload: maxUpload,
		validate:  validator.New(),
	}
}

type selectRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Key        string `json:"key" validate:"required,oneof=A B C D a b c d"`
}

// sessionView is a session plus its derived progress.
type sessionView struct {
	app.State
	Progress domain.Progress `json:"progress"`
}

type resultView struct {
	domain.Result
	Percent *int `json:"percent"` // nil for an empty bank
}

type errorBody struct {
	Error string `json:"error"`
	Row   int    `json:"row,omitempty"`
}

func newSessionView(state app.State) sessionView {
	return sessionView{State: state, Progress: state.Progress()}
}

func newResultView(result domain.Result) resultView {
	view := resultView{Result: result}
	if p, ok := result.Score.Percent(); ok {
		view.Percent = &p
	}
	return view
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.StartSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(state))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadWorkbook reads the multipart "file" field and loads it into the session.
func (h *SessionHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "expected a multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	state, err := h.service.LoadWorkbook(r.Context(), chi.URLParam(r, "sessionID"), domain.Upload{
		Name: header.Filename,
		Data: data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().
		Str("session", state.ID).
		Str("file", header.Filename).
		Int("questions", len(state.Questions())).
		Msg("workbook loaded")
	writeJSON(w, http.StatusOK, newSessionView(state))
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	key := domain.OptionKey(strings.ToUpper(req.Key))
	state, err := h.service.Select(r.Context(), chi.URLParam(r, "sessionID"), req.QuestionID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state))
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	_, result, err := h.service.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(result))
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state))
}

func TemplateCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="mcq-template.csv"`)
	if err := workbook.WriteTemplateCSV(w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write csv template")
	}
}

func TemplateXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="mcq-template.xlsx"`)
	if err := workbook.WriteTemplateXLSX(w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write xlsx template")
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		body.Row = validationErr.Row
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrOptionNotFound), errors.Is(err, domain.ErrUnreadableWorkbook):
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrLoadSuperseded), errors.Is(err, domain.ErrNoQuestions):
		return http.StatusConflict, body
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
