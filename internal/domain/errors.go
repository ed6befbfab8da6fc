package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Record store errors
	ErrMissingFields  = errors.New("请完善信息：姓名、金额、日期为必填项")
	ErrRecordNotFound = errors.New("record not found")

	// Backup codec errors
	ErrBackupParse = errors.New("解析备份文件失败，JSON 格式可能有误")
	ErrBackupShape = errors.New("文件格式错误：备份必须包含 debts 数组")

	// Chat / AI rewrite errors
	ErrChatUnavailable = errors.New("AI 暂时不可用")
	ErrSuperseded      = errors.New("generation superseded by a newer request")

	// Renderer errors
	ErrBadSignature = errors.New("signature image could not be decoded")
)
