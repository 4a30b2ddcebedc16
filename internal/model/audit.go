package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateSubmission  = "CREATE_SUBMISSION"
	ActionUpdateSubmission  = "UPDATE_SUBMISSION"
	ActionDeleteSubmission  = "DELETE_SUBMISSION"
	ActionApproveSubmission = "APPROVE_SUBMISSION"
	ActionRejectSubmission  = "REJECT_SUBMISSION"
	ActionReportRealization = "REPORT_REALIZATION"

	ActionCreateLedgerEntry = "CREATE_LEDGER_ENTRY"
	ActionUpdateLedgerEntry = "UPDATE_LEDGER_ENTRY"
	ActionDeleteLedgerEntry = "DELETE_LEDGER_ENTRY"
	ActionPostLedgerEntry   = "POST_LEDGER_ENTRY_FROM_REALIZATION"

	ActionCreateStaff = "CREATE_STAFF"
	ActionUpdateStaff = "UPDATE_STAFF"
	ActionDeleteStaff = "DELETE_STAFF"

	ActionCreateUser      = "CREATE_USER"
	ActionUpdateUserEmail = "UPDATE_USER_EMAIL"
	ActionDeleteUser      = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for operator CLI actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	ActorRole  string     `gorm:"type:varchar(50)" json:"actor_role"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
