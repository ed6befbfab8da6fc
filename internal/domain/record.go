// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// ─── Record Types ───────────────────────────────────────────────────────────

// DebtType says which direction the money flows.
type DebtType string

const (
	// Incoming is money owed TO the user ("借给别人").
	Incoming DebtType = "incoming"
	// Outgoing is money owed BY the user ("欠别人钱").
	Outgoing DebtType = "outgoing"
)

// Valid reports whether t is a known debt type.
func (t DebtType) Valid() bool { return t == Incoming || t == Outgoing }

// Status is the persisted, advisory status of a record.
// The displayed badge is always derived from the due date instead;
// the two can disagree and the persisted value is never trusted.
type Status string

const (
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// DebtRecord is a single IOU, in either direction.
// JSON field names match the persisted localStorage/backup format.
type DebtRecord struct {
	ID            int64    `json:"id"`
	Type          DebtType `json:"type"`
	Name          string   `json:"name"`
	Amount        Amount   `json:"amount"`
	DueDate       string   `json:"dueDate"` // YYYY-MM-DD
	DueTime       string   `json:"dueTime"` // HH:MM, 24-hour
	Reason        string   `json:"reason,omitempty"`
	Status        Status   `json:"status"`
	AddToCalendar bool     `json:"addToCalendar"`
}

// DueAt parses the record's due date and time in the given location.
func (r DebtRecord) DueAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", r.DueDate+" "+r.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("record %d: bad due date/time: %w", r.ID, err)
	}
	return t, nil
}

// SortByDue orders records by their due instant, soonest first. Records
// whose date or time will not parse sort last, in their original order.
func SortByDue(records []DebtRecord, loc *time.Location) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, erri := records[i].DueAt(loc)
		tj, errj := records[j].DueAt(loc)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.Before(tj)
	})
}

// ReasonOrFallback returns the reason note, or the "no note" placeholder.
func (r DebtRecord) ReasonOrFallback() string {
	if r.Reason == "" {
		return "无备注"
	}
	return r.Reason
}

// ValidateDraft checks the fields a record must have before it is persisted.
// A draft needs a counterparty name, a positive amount and a due date.
func (r DebtRecord) ValidateDraft() error {
	if r.Name == "" || r.Amount.Sign() <= 0 || r.DueDate == "" {
		return ErrMissingFields
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrMissingFields, r.Type)
	}
	return nil
}

// ─── Derived Badge ──────────────────────────────────────────────────────────

// Badge is the display classification of a record, derived at read time
// by comparing the due date to the current date. Never persisted.
type Badge string

const (
	BadgeOverdue  Badge = "overdue"
	BadgeDueToday Badge = "due_today"
	BadgePending  Badge = "pending"
)

// Classify derives the display badge for a due date (YYYY-MM-DD) as of now.
// Lexicographic comparison is exact for ISO dates.
func Classify(dueDate string, now time.Time) Badge {
	today := now.Format(time.DateOnly)
	switch {
	case dueDate < today:
		return BadgeOverdue
	case dueDate == today:
		return BadgeDueToday
	default:
		return BadgePending
	}
}

// ─── User Profile ───────────────────────────────────────────────────────────

// UserProfile is the identity preset used as the default signer.
type UserProfile struct {
	Name   string `json:"name"`
	IDCard string `json:"idCard"`
}

// ─── Commitment Form ────────────────────────────────────────────────────────

// DefaultPenalty is the default liability clause offered on the form.
const DefaultPenalty = "承担相应的法律责任及所有催收费用"

// CommitmentForm holds the per-share-session inputs for a commitment
// statement. Pre-filled from the profile, editable, never persisted.
type CommitmentForm struct {
	MyName         string `json:"myName"`
	IDCard         string `json:"idCard"`
	IncludePenalty bool   `json:"includePenalty"`
	Penalty        string `json:"penalty"`
}

// FormFor pre-fills a commitment form from the profile.
func FormFor(p UserProfile) CommitmentForm {
	return CommitmentForm{MyName: p.Name, IDCard: p.IDCard, Penalty: DefaultPenalty}
}

// ─── AI Rewrite Options ─────────────────────────────────────────────────────

// Audience is who the collection message is addressed to.
type Audience string

const (
	AudienceFriend      Audience = "朋友"
	AudienceColleague   Audience = "同事"
	AudienceClassmate   Audience = "同学"
	AudienceRelative    Audience = "亲属"
	AudienceSuperior    Audience = "领导"
	AudienceSubordinate Audience = "下属"
)

// Style is the tone requested for the rewrite.
type Style string

const (
	StyleNormal     Style = "正常"
	StyleHumorous   Style = "幽默"
	StyleSaccharine Style = "绿茶"
	StyleArchaic    Style = "古风"
	StyleUnhinged   Style = "发疯文学"
)

// Audiences lists the selectable audiences in display order.
func Audiences() []Audience {
	return []Audience{AudienceFriend, AudienceColleague, AudienceClassmate,
		AudienceRelative, AudienceSuperior, AudienceSubordinate}
}

// Styles lists the selectable styles in display order.
func Styles() []Style {
	return []Style{StyleNormal, StyleHumorous, StyleSaccharine, StyleArchaic, StyleUnhinged}
}

// ─── Seed Data ──────────────────────────────────────────────────────────────

// SeedRecords returns the example records shown on first run, or when the
// persisted record list is missing or unparseable.
func SeedRecords() []DebtRecord {
	return []DebtRecord{
		{ID: 1, Type: Incoming, Name: "张三", Amount: AmountFromInt(500), DueDate: "2023-12-31", DueTime: "18:00", Reason: "聚餐垫付", Status: StatusOverdue},
		{ID: 2, Type: Incoming, Name: "李四", Amount: AmountFromInt(2000), DueDate: "2025-12-01", DueTime: "12:00", Reason: "周转借款", Status: StatusPending},
		{ID: 3, Type: Outgoing, Name: "王五", Amount: AmountFromInt(1000), DueDate: "2024-05-20", DueTime: "09:00", Reason: "房租周转", Status: StatusPending, AddToCalendar: true},
	}
}
