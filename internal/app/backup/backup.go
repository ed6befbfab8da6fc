// Package backup serializes the record store to a human-editable JSON
// document and parses user-supplied documents back, with collection-shape
// validation. The document deliberately opens with guidance keys so users
// can batch-edit their bills in a text editor.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fankeji/debtbook/internal/domain"
)

// MIMEType is the media type the backup is offered under.
const MIMEType = "application/json"

// document is the exported file layout. Field order is the on-disk
// key order: guidance first, then profile, then the bills verbatim.
type document struct {
	Usage       string              `json:"___使用说明___"`
	FieldGuide  fieldGuide          `json:"___字段填写指南___"`
	UserProfile domain.UserProfile  `json:"userProfile"`
	Debts       []domain.DebtRecord `json:"debts"`
}

type fieldGuide struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	DueDate       string `json:"dueDate"`
	DueTime       string `json:"dueTime"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	AddToCalendar string `json:"addToCalendar"`
}

// Serialize renders the full store state as an indented document.
func Serialize(profile domain.UserProfile, records []domain.DebtRecord) ([]byte, error) {
	if records == nil {
		records = []domain.DebtRecord{}
	}
	doc := document{
		Usage: "1. 您可以直接编辑此文件来批量添加账单。 2. 请勿修改左侧英文键名（如 name），只修改右侧的值。 3. 修改完成后，在App点击'恢复账单数据'上传。",
		FieldGuide: fieldGuide{
			Type:          "填写 'incoming' (别人欠我) 或 'outgoing' (我欠别人)",
			Name:          "对方姓名",
			Amount:        "金额 (纯数字，不要加符号)",
			DueDate:       "日期 (格式必须为 YYYY-MM-DD)",
			DueTime:       "时间 (格式为 HH:MM)",
			Reason:        "备注原因",
			Status:        "填写 'pending' (进行中) 或 'overdue' (已逾期)",
			AddToCalendar: "true (开启日历) 或 false (关闭)",
		},
		UserProfile: profile,
		Debts:       records,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Filename embeds the current date in the download name.
func Filename(now time.Time) string {
	return fmt.Sprintf("有借有还_备份_%s.json", now.Format(time.DateOnly))
}

// Restored is a parsed, not-yet-applied backup. Callers must get an
// explicit user confirmation (stating Count) before handing it to
// the store; restore replaces the collection, it never merges.
type Restored struct {
	Profile *domain.UserProfile
	Records []domain.DebtRecord
}

// Count is the number of records the restore would import.
func (r Restored) Count() int { return len(r.Records) }

// Deserialize parses a backup document. Unparseable JSON yields
// ErrBackupParse; a missing or non-array debts field yields
// ErrBackupShape. Individual records are taken as-is beyond JSON
// typing — bogus dates, amounts or enum values pass through.
func Deserialize(data []byte) (Restored, error) {
	var raw struct {
		UserProfile *domain.UserProfile `json:"userProfile"`
		Debts       json.RawMessage     `json:"debts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Restored{}, fmt.Errorf("%w: %v", domain.ErrBackupParse, err)
	}

	trimmed := bytes.TrimSpace(raw.Debts)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Restored{}, domain.ErrBackupShape
	}

	var records []domain.DebtRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return Restored{}, fmt.Errorf("%w: %v", domain.ErrBackupParse, err)
	}
	return Restored{Profile: raw.UserProfile, Records: records}, nil
}
