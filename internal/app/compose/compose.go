// Package compose produces the textual content of collection reminders
// and commitment statements. The template paths are pure; the AI rewrite
// path goes through a chat backend and carries a monotonic request
// sequence so a slow old response can never overwrite a newer one.
package compose

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fankeji/debtbook/internal/domain"
)

// SystemPrompt is the fixed persona for the rewrite call.
const SystemPrompt = "你是一个高情商催收助手。"

// ─── Templates ──────────────────────────────────────────────────────────────

// Reminder is the deterministic collection reminder for an incoming record.
func Reminder(rec domain.DebtRecord) string {
	return fmt.Sprintf("%s，借给你的%s元（原因：%s）记得在%s %s前还哦。",
		rec.Name, rec.Amount.String(), rec.ReasonOrFallback(), rec.DueDate, rec.DueTime)
}

// Commitment is the deterministic commitment statement for an outgoing
// record: signer, identity number, promised date, counterparty, grouped
// amount, optional liability clause, closing signer and current date.
func Commitment(rec domain.DebtRecord, form domain.CommitmentForm, now time.Time) string {
	signer := form.MyName
	if signer == "" {
		signer = "___"
	}
	idCard := form.IDCard
	if idCard == "" {
		idCard = "__________________"
	}

	text := fmt.Sprintf("借款承诺书\n\n本人 %s (身份证号: %s) 承诺于 %s 前向 %s 偿还人民币 %s 元。",
		signer, idCard, rec.DueDate, rec.Name, rec.Amount.Grouped())
	if form.IncludePenalty {
		text += fmt.Sprintf("\n\n违约责任：若未按时归还，本人愿%s。", form.Penalty)
	}
	text += fmt.Sprintf("\n\n承诺人：%s\n日期：%s", signer, now.Format("2006/01/02"))
	return text
}

// rewriteBase is the templated message embedded in the AI user prompt.
func rewriteBase(rec domain.DebtRecord) string {
	return fmt.Sprintf("%s，你借的%s元（原因：%s）该还了。",
		rec.Name, rec.Amount.String(), rec.Reason)
}

// UserPrompt builds the rewrite instruction for the given options.
func UserPrompt(rec domain.DebtRecord, audience domain.Audience, style domain.Style) string {
	return fmt.Sprintf("将此信息改写给\"%s\"，语气\"%s\"：%s。要求100字内，直接返回正文。",
		audience, style, rewriteBase(rec))
}

// ─── Composer ───────────────────────────────────────────────────────────────

// Composer issues AI rewrites. Safe for concurrent use.
type Composer struct {
	chat domain.ChatCompleter
	seq  atomic.Uint64
}

// New creates a composer. chat may be nil; the template paths still work
// and Rewrite reports the chat backend as unavailable.
func New(chat domain.ChatCompleter) *Composer {
	return &Composer{chat: chat}
}

// Rewrite asks the chat backend to restyle the reminder for an audience
// and tone. Every call re-issues the request — no caching, no dedup.
// If a newer Rewrite was issued while this one was in flight, the stale
// result is discarded and ErrSuperseded comes back instead.
func (c *Composer) Rewrite(ctx context.Context, rec domain.DebtRecord, audience domain.Audience, style domain.Style) (string, error) {
	if c.chat == nil {
		return "", domain.ErrChatUnavailable
	}
	id := c.seq.Add(1)

	text, err := c.chat.Complete(ctx, SystemPrompt, UserPrompt(rec, audience, style))
	if err != nil {
		return "", err
	}
	if c.seq.Load() != id {
		return "", domain.ErrSuperseded
	}
	return text, nil
}

// ─── Share Session ──────────────────────────────────────────────────────────

// Session is the ephemeral state of one sharing flow: the record being
// shared, the editable commitment form, the rewrite options and the
// latest AI text. Discarded when the flow closes; nothing persists.
type Session struct {
	mu         sync.Mutex
	composer   *Composer
	record     domain.DebtRecord
	form       domain.CommitmentForm
	audience   domain.Audience
	style      domain.Style
	aiText     string
	generating int
}

// NewSession opens a sharing flow for rec, pre-filling the commitment
// form from the profile and defaulting the rewrite options.
func NewSession(c *Composer, rec domain.DebtRecord, profile domain.UserProfile) *Session {
	return &Session{
		composer: c,
		record:   rec,
		form:     domain.FormFor(profile),
		audience: domain.AudienceFriend,
		style:    domain.StyleNormal,
	}
}

// Record returns the record being shared.
func (s *Session) Record() domain.DebtRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Form returns the current commitment form.
func (s *Session) Form() domain.CommitmentForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetForm replaces the commitment form.
func (s *Session) SetForm(f domain.CommitmentForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

// Generating reports whether a rewrite is in flight. While true, the
// session's message must not be treated as final.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating > 0
}

// Message returns the text to show or render right now: the commitment
// statement for outgoing records, the latest AI text for incoming ones
// when present, the template reminder otherwise.
func (s *Session) Message(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record.Type == domain.Outgoing {
		return Commitment(s.record, s.form, now)
	}
	if s.aiText != "" {
		return s.aiText
	}
	return Reminder(s.record)
}

// Rewrite re-issues the AI call with updated options. An empty audience
// or style keeps the current selection. On failure the previous message
// state is left untouched and the template stays available as fallback.
func (s *Session) Rewrite(ctx context.Context, audience domain.Audience, style domain.Style) (string, error) {
	s.mu.Lock()
	if audience != "" {
		s.audience = audience
	}
	if style != "" {
		s.style = style
	}
	rec, aud, sty := s.record, s.audience, s.style
	s.generating++
	s.mu.Unlock()

	text, err := s.composer.Rewrite(ctx, rec, aud, sty)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating--
	if err != nil {
		return "", err
	}
	if text != "" {
		s.aiText = text
	}
	return text, nil
}
