// Package ics builds the reminder calendar document for a debt record.
// One VEVENT, one VALARM 15 minutes before, a single fixed time zone,
// no recurrence. Output is fully deterministic: exporting the same
// record twice yields byte-identical documents.
package ics

import (
	"fmt"
	"strings"

	"github.com/fankeji/debtbook/internal/domain"
)

// MIMEType is the media type the document is offered under.
const MIMEType = "text/calendar;charset=utf-8"

// TimeZoneID is the fixed named zone every event is expressed in.
const TimeZoneID = "Asia/Shanghai"

const prodID = "-//FanKeJi//DebtCollector//CN"

// BuildEvent renders the iCalendar document for one record.
func BuildEvent(rec domain.DebtRecord) string {
	var title string
	if rec.Type == domain.Incoming {
		title = fmt.Sprintf("有借有还：%s应还款", rec.Name)
	} else {
		title = fmt.Sprintf("有借有还：还给%s", rec.Name)
	}

	dateStr := strings.ReplaceAll(rec.DueDate, "-", "")
	timeStr := strings.ReplaceAll(rec.DueTime, ":", "")
	start := dateStr + "T" + timeStr + "00"

	desc := fmt.Sprintf("金额：%s元\n备注：%s", rec.Amount.String(), rec.Reason)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:debtbook-%d@fankeji", rec.ID),
		"SUMMARY:" + escapeText(title),
		fmt.Sprintf("DTSTART;TZID=%s:%s", TimeZoneID, start),
		fmt.Sprintf("DTEND;TZID=%s:%s", TimeZoneID, start),
		"DESCRIPTION:" + escapeText(desc),
		"BEGIN:VALARM",
		"TRIGGER:-PT15M",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	// RFC 5545 wants CRLF line endings.
	return strings.Join(lines, "\r\n") + "\r\n"
}

// Filename is the deterministic download name for a record's event.
func Filename(rec domain.DebtRecord) string {
	return fmt.Sprintf("event-%s-%s.ics", rec.Name, rec.DueDate)
}

// escapeText escapes an iCalendar TEXT value per RFC 5545 §3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
