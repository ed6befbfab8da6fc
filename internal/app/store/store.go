// Package store is the record store: the single authoritative owner of
// the user profile and the debt record collection. It loads persisted
// state at startup and writes the full current value back on every
// mutation — no deltas, no batching, last write wins.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fankeji/debtbook/internal/domain"
)

// Storage keys, one per persisted entry.
const (
	profileKey = "debt_user_profile"
	recordsKey = "debt_data_list"
)

// Store owns the in-memory state and its persistence.
// All methods are safe for concurrent use; mutations serialize and run
// to completion, so no two writes interleave.
type Store struct {
	mu      sync.Mutex
	kv      domain.KeyValue
	profile domain.UserProfile
	records []domain.DebtRecord
	now     func() time.Time
}

// Open loads persisted state from kv. A missing or unparseable entry
// falls back to defaults (empty profile, seed example records) — a bad
// persisted document must never take the app down. The loaded state is
// written back immediately so the entries always exist afterwards.
func Open(kv domain.KeyValue) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}

	if raw, ok, err := kv.Get(profileKey); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	} else if ok {
		if jsonErr := json.Unmarshal([]byte(raw), &s.profile); jsonErr != nil {
			s.profile = domain.UserProfile{}
		}
	}

	s.records = domain.SeedRecords()
	if raw, ok, err := kv.Get(recordsKey); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	} else if ok {
		var recs []domain.DebtRecord
		if jsonErr := json.Unmarshal([]byte(raw), &recs); jsonErr == nil {
			s.records = recs
		}
	}

	if err := s.persistProfile(); err != nil {
		return nil, err
	}
	if err := s.persistRecords(); err != nil {
		return nil, err
	}
	return s, nil
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// Profile returns the current user profile.
func (s *Store) Profile() domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Records returns a copy of the record collection.
func (s *Store) Records() []domain.DebtRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DebtRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record looks a record up by id.
func (s *Store) Record(id int64) (domain.DebtRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.DebtRecord{}, domain.ErrRecordNotFound
}

// TotalFor sums the amounts of all records of the given type.
func (s *Store) TotalFor(t domain.DebtType) domain.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total domain.Amount
	for _, r := range s.records {
		if r.Type == t {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// NetBalance returns receivable minus payable.
func (s *Store) NetBalance() domain.Amount {
	return s.TotalFor(domain.Incoming).Sub(s.TotalFor(domain.Outgoing))
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// SetProfile replaces the user profile and persists it.
func (s *Store) SetProfile(p domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.profile
	s.profile = p
	if err := s.persistProfile(); err != nil {
		s.profile = prev
		return err
	}
	return nil
}

// Add validates a draft, assigns a fresh unique id and pending status,
// appends it and persists the collection. The returned record carries
// the assigned id.
func (s *Store) Add(draft domain.DebtRecord) (domain.DebtRecord, error) {
	if err := draft.ValidateDraft(); err != nil {
		return domain.DebtRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft.ID = s.freshID()
	draft.Status = domain.StatusPending
	s.records = append(s.records, draft)
	if err := s.persistRecords(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return domain.DebtRecord{}, err
	}
	return draft, nil
}

// Delete removes a record by id and persists. Absent ids are a no-op.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.DebtRecord, 0, len(s.records))
	found := false
	for _, r := range s.records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return nil
	}
	prev := s.records
	s.records = kept
	if err := s.persistRecords(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// ClearAll empties the record collection. Callers must gate this behind
// an explicit user confirmation; the store itself does not ask.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.records
	s.records = []domain.DebtRecord{}
	if err := s.persistRecords(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// ReplaceAll swaps in a restored record collection wholesale and, when
// profile is non-nil, the profile too. Used by backup restore after the
// user has confirmed; never merges.
func (s *Store) ReplaceAll(records []domain.DebtRecord, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevRecords, prevProfile := s.records, s.profile
	s.records = records
	if profile != nil {
		s.profile = *profile
	}
	if err := s.persistRecords(); err != nil {
		s.records, s.profile = prevRecords, prevProfile
		return err
	}
	if profile != nil {
		if err := s.persistProfile(); err != nil {
			s.records, s.profile = prevRecords, prevProfile
			return err
		}
	}
	return nil
}

// ─── Persistence ────────────────────────────────────────────────────────────
// Callers hold s.mu.

func (s *Store) persistProfile() error {
	b, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(profileKey, string(b)); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func (s *Store) persistRecords() error {
	b, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.kv.Set(recordsKey, string(b)); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// freshID returns a creation-timestamp id, bumped past any existing id
// so the uniqueness invariant holds even for same-millisecond adds.
func (s *Store) freshID() int64 {
	id := s.now().UnixMilli()
	for {
		taken := false
		for _, r := range s.records {
			if r.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}
