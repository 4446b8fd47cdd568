package domain

import "time"

// Audit actions recorded by the credential manager.
const (
	AuditRegister      = "REGISTER"
	AuditFailedLogin   = "FAILED_LOGIN"
	AuditAccountLocked = "ACCOUNT_LOCKED"
	AuditOTPIssued     = "OTP_ISSUED"
	AuditLogin         = "LOGIN"
)

// Audit entry statuses.
const (
	AuditSuccess = "SUCCESS"
	AuditFailure = "FAILURE"
)

// AuditEntry is a security-relevant event emitted by the auth flow.
// Recording is fire-and-forget: a failed write never fails the operation
// that produced the entry.
type AuditEntry struct {
	AccountID string    `json:"account_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
