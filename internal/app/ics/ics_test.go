package ics

import (
	"strings"
	"testing"

	"github.com/fankeji/debtbook/internal/domain"
)

func testRecord() domain.DebtRecord {
	return domain.DebtRecord{
		ID:      1,
		Type:    domain.Incoming,
		Name:    "张三",
		Amount:  domain.AmountFromInt(500),
		DueDate: "2023-12-31",
		DueTime: "18:00",
		Reason:  "聚餐垫付",
	}
}

func TestBuildEvent(t *testing.T) {
	doc := BuildEvent(testRecord())

	wants := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//FanKeJi//DebtCollector//CN",
		"SUMMARY:有借有还：张三应还款",
		"DTSTART;TZID=Asia/Shanghai:20231231T180000",
		"DTEND;TZID=Asia/Shanghai:20231231T180000",
		`DESCRIPTION:金额：500元\n备注：聚餐垫付`,
		"TRIGGER:-PT15M",
		"ACTION:DISPLAY",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, want := range wants {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q\n%s", want, doc)
		}
	}
}

func TestBuildEvent_OutgoingSummary(t *testing.T) {
	rec := testRecord()
	rec.Type = domain.Outgoing
	rec.Name = "王五"

	doc := BuildEvent(rec)
	if !strings.Contains(doc, "SUMMARY:有借有还：还给王五") {
		t.Errorf("outgoing summary wrong:\n%s", doc)
	}
}

func TestBuildEvent_Deterministic(t *testing.T) {
	rec := testRecord()
	if BuildEvent(rec) != BuildEvent(rec) {
		t.Error("BuildEvent must be byte-identical across calls")
	}
}

func TestBuildEvent_CRLF(t *testing.T) {
	doc := BuildEvent(testRecord())
	if !strings.HasSuffix(doc, "END:VCALENDAR\r\n") {
		t.Error("document must end with CRLF-terminated END:VCALENDAR")
	}
	if strings.Contains(strings.ReplaceAll(doc, "\r\n", ""), "\n") {
		t.Error("all line breaks must be CRLF")
	}
}

func TestBuildEvent_EscapesText(t *testing.T) {
	rec := testRecord()
	rec.Reason = "午饭, 各付一半; 记得"
	doc := BuildEvent(rec)
	if !strings.Contains(doc, `午饭\, 各付一半\; 记得`) {
		t.Errorf("TEXT value not escaped:\n%s", doc)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(testRecord())
	if got != "event-张三-2023-12-31.ics" {
		t.Errorf("Filename() = %q", got)
	}
}
