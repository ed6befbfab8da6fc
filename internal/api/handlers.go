package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fankeji/debtbook/internal/app/backup"
	"github.com/fankeji/debtbook/internal/app/compose"
	"github.com/fankeji/debtbook/internal/app/ics"
	"github.com/fankeji/debtbook/internal/app/render"
	"github.com/fankeji/debtbook/internal/domain"
)

// recordView is a record plus its derived due badge. The badge is a view
// concern and is never persisted.
type recordView struct {
	domain.DebtRecord
	Badge domain.Badge `json:"badge"`
}

func (s *Server) viewOf(rec domain.DebtRecord) recordView {
	return recordView{DebtRecord: rec, Badge: domain.Classify(rec.DueDate, s.now())}
}

// ─── Records ────────────────────────────────────────────────────────────────

// handleListRecords returns all records, optionally filtered by the
// type query parameter (incoming or outgoing).
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	filter := domain.DebtType(r.URL.Query().Get("type"))
	views := make([]recordView, 0)
	for _, rec := range s.store.Records() {
		if filter != "" && rec.Type != filter {
			continue
		}
		views = append(views, s.viewOf(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var draft domain.DebtRecord
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.store.Add(draft)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("add record")
		writeError(w, http.StatusInternalServerError, "保存失败")
		return
	}
	observeMutation("add")
	writeJSON(w, http.StatusCreated, s.viewOf(rec))
}

// handleDeleteRecord removes one record. A missing id is a no-op, so
// the response is 204 either way.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("delete record")
		writeError(w, http.StatusInternalServerError, "删除失败")
		return
	}
	observeMutation("delete")
	w.WriteHeader(http.StatusNoContent)
}

// handleClearRecords wipes every record. Destructive, so it is gated on
// an explicit confirm=true.
func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "确认清空所有账单？重试时附加 confirm=true")
		return
	}
	if err := s.store.ClearAll(); err != nil {
		s.log.Error().Err(err).Msg("clear records")
		writeError(w, http.StatusInternalServerError, "清空失败")
		return
	}
	observeMutation("clear")
	w.WriteHeader(http.StatusNoContent)
}

// handleCalendarExport offers the record's due date as an ICS download.
func (s *Server) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.recordParam(w, r)
	if !ok {
		return
	}
	writeAttachment(w, ics.Filename(rec), ics.MIMEType, []byte(ics.BuildEvent(rec)))
}

func (s *Server) recordParam(w http.ResponseWriter, r *http.Request) (domain.DebtRecord, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return domain.DebtRecord{}, false
	}
	rec, err := s.store.Record(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "记录不存在")
		return domain.DebtRecord{}, false
	}
	return rec, true
}

// ─── Profile and summary ────────────────────────────────────────────────────

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Profile())
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetProfile(p); err != nil {
		s.log.Error().Err(err).Msg("set profile")
		writeError(w, http.StatusInternalServerError, "保存失败")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSummary reports aggregate balances across both directions.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]domain.Amount{
		"incoming": s.store.TotalFor(domain.Incoming),
		"outgoing": s.store.TotalFor(domain.Outgoing),
		"net":      s.store.NetBalance(),
	})
}

// ─── Backup and restore ─────────────────────────────────────────────────────

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	data, err := backup.Serialize(s.store.Profile(), s.store.Records())
	if err != nil {
		s.log.Error().Err(err).Msg("serialize backup")
		writeError(w, http.StatusInternalServerError, "备份失败")
		return
	}
	writeAttachment(w, backup.Filename(s.now()), backup.MIMEType, data)
}

// handleRestore takes a backup file as the request body. The first call
// (without confirm=true) only inspects it and reports what would be
// overwritten; the client repeats the call with confirm=true to commit.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	restored, err := backup.Deserialize(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   restored.Count(),
			"message": fmt.Sprintf("检测到备份文件，包含 %d 条账单。确认覆盖当前数据吗？", restored.Count()),
		})
		return
	}

	if err := s.store.ReplaceAll(restored.Records, restored.Profile); err != nil {
		s.log.Error().Err(err).Msg("restore backup")
		writeError(w, http.StatusInternalServerError, "恢复失败")
		return
	}
	observeMutation("restore")
	writeJSON(w, http.StatusOK, map[string]any{"count": restored.Count(), "restored": true})
}

// ─── Compose and render ─────────────────────────────────────────────────────

type composeRequest struct {
	ID   int64                  `json:"id"`
	Form *domain.CommitmentForm `json:"form,omitempty"`
}

// handleCompose returns the template message for a record. Incoming
// records get the reminder, outgoing records the commitment letter.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.store.Record(req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "记录不存在")
		return
	}

	var msg string
	if rec.Type == domain.Outgoing {
		form := domain.FormFor(s.store.Profile())
		if req.Form != nil {
			form = *req.Form
		}
		msg = compose.Commitment(rec, form, s.now())
	} else {
		msg = compose.Reminder(rec)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type rewriteRequest struct {
	ID       int64           `json:"id"`
	Audience domain.Audience `json:"audience"`
	Style    domain.Style    `json:"style"`
}

// handleRewrite runs the AI rewrite for an incoming record's reminder.
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	if s.composer == nil {
		writeError(w, http.StatusInternalServerError, "Server configuration error: Missing API Key")
		return
	}
	var req rewriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.store.Record(req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "记录不存在")
		return
	}
	if req.Audience == "" {
		req.Audience = domain.AudienceFriend
	}
	if req.Style == "" {
		req.Style = domain.StyleNormal
	}

	text, err := s.composer.Rewrite(r.Context(), rec, req.Audience, req.Style)
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			writeError(w, http.StatusConflict, "请求已被更新的请求取代")
			return
		}
		s.log.Warn().Err(err).Msg("rewrite failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": text})
}

type renderRequest struct {
	ID        int64  `json:"id"`
	Text      string `json:"text,omitempty"`
	Signature string `json:"signature,omitempty"` // PNG data URI from a signature pad
}

// handleRender rasterizes a commitment letter as a PNG download. An
// omitted text falls back to the stock commitment for the record.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		writeError(w, http.StatusInternalServerError, "渲染不可用")
		return
	}
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.store.Record(req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "记录不存在")
		return
	}
	text := req.Text
	if text == "" {
		// Pick the template by direction: the payment reminder for money
		// owed to the user, the commitment letter for money they owe.
		text = compose.NewSession(s.composer, rec, s.store.Profile()).Message(s.now())
	}

	var sig []byte
	if req.Signature != "" {
		sig = []byte(req.Signature)
	}
	result, err := s.renderer.Render(r.Context(), rec, text, sig)
	if err != nil {
		s.log.Error().Err(err).Msg("render document")
		writeError(w, http.StatusInternalServerError, "生成图片失败")
		return
	}
	observeRender(result.SignatureAttached)
	writeAttachment(w, result.Filename, render.MIMEType, result.PNG)
}
