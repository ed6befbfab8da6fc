package backup

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fankeji/debtbook/internal/domain"
)

func sampleState() (domain.UserProfile, []domain.DebtRecord) {
	profile := domain.UserProfile{Name: "李雷", IDCard: "110101199001011234"}
	records := []domain.DebtRecord{
		{ID: 1, Type: domain.Incoming, Name: "张三", Amount: domain.AmountFromInt(500), DueDate: "2023-12-31", DueTime: "18:00", Reason: "聚餐垫付", Status: domain.StatusOverdue},
		{ID: 3, Type: domain.Outgoing, Name: "王五", Amount: domain.AmountFromInt(1000), DueDate: "2024-05-20", DueTime: "09:00", Reason: "房租周转", Status: domain.StatusPending, AddToCalendar: true},
	}
	return profile, records
}

func recordsEqual(a, b []domain.DebtRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Type != y.Type || x.Name != y.Name ||
			!x.Amount.Equal(y.Amount) || x.DueDate != y.DueDate ||
			x.DueTime != y.DueTime || x.Reason != y.Reason ||
			x.Status != y.Status || x.AddToCalendar != y.AddToCalendar {
			return false
		}
	}
	return true
}

// ─── Round Trip ─────────────────────────────────────────────────────────────

func TestRoundTrip(t *testing.T) {
	profile, records := sampleState()

	data, err := Serialize(profile, records)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	if got.Profile == nil || *got.Profile != profile {
		t.Errorf("Profile = %+v, want %+v", got.Profile, profile)
	}
	if !recordsEqual(got.Records, records) {
		t.Errorf("Records = %+v, want %+v", got.Records, records)
	}
	if got.Count() != 2 {
		t.Errorf("Count() = %d, want 2", got.Count())
	}
}

// ─── Export Shape ───────────────────────────────────────────────────────────

func TestSerialize_GuidanceAndIndentation(t *testing.T) {
	profile, records := sampleState()
	data, err := Serialize(profile, records)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	for _, want := range []string{
		`"___使用说明___"`,
		`"___字段填写指南___"`,
		`"userProfile"`,
		`"debts"`,
		"YYYY-MM-DD",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if !strings.Contains(s, "\n  ") {
		t.Error("document should be indented for hand editing")
	}
}

func TestSerialize_NilRecordsBecomesEmptyArray(t *testing.T) {
	data, err := Serialize(domain.UserProfile{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"debts": []`) {
		t.Errorf("nil records should serialize as []:\n%s", data)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)
	if got := Filename(now); got != "有借有还_备份_2024-05-20.json" {
		t.Errorf("Filename() = %q", got)
	}
}

// ─── Import Validation ──────────────────────────────────────────────────────

func TestDeserialize_RejectsUnparseable(t *testing.T) {
	_, err := Deserialize([]byte(`{broken`))
	if !errors.Is(err, domain.ErrBackupParse) {
		t.Errorf("error = %v, want ErrBackupParse", err)
	}
}

func TestDeserialize_RejectsBadDebtsShape(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing debts", `{"userProfile":{"name":"x","idCard":""}}`},
		{"debts object", `{"debts":{"id":1}}`},
		{"debts string", `{"debts":"[]"}`},
		{"debts number", `{"debts":3}`},
		{"debts null", `{"debts":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.input))
			if !errors.Is(err, domain.ErrBackupShape) {
				t.Errorf("error = %v, want ErrBackupShape", err)
			}
		})
	}
}

func TestDeserialize_ProfileOptional(t *testing.T) {
	got, err := Deserialize([]byte(`{"debts":[]}`))
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if got.Profile != nil {
		t.Errorf("Profile = %+v, want nil when absent", got.Profile)
	}
}

func TestDeserialize_MalformedRecordValuesPassThrough(t *testing.T) {
	// Individual record values are not validated: bogus enums, dates and
	// uncoercible amounts are accepted as-is (documented limitation).
	doc := `{"debts":[{"id":5,"type":"sideways","name":"","amount":"abc","dueDate":"someday","status":"???"}]}`
	got, err := Deserialize([]byte(doc))
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if got.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", got.Count())
	}
	rec := got.Records[0]
	if rec.Type != "sideways" || rec.DueDate != "someday" || rec.Amount.Sign() != 0 {
		t.Errorf("record altered on import: %+v", rec)
	}
}
