package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	PlayerID  Identity               `db:"player_id" json:"player_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	Actor     string                 `db:"actor" json:"actor,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategorySession     = "session"
	AuditCategoryBalance     = "balance"
	AuditCategoryMultiplier  = "multiplier"
	AuditCategoryProgression = "progression"
	AuditCategoryMilestone   = "milestone"
	AuditCategoryAdmin       = "admin"
)

// Audit actions
const (
	AuditActionJoin  = "join"
	AuditActionLeave = "leave"

	AuditActionRankup    = "rankup"
	AuditActionPrestige  = "prestige"
	AuditActionRebirth   = "rebirth"
	AuditActionAscension = "ascension"

	AuditActionTransfer      = "transfer"
	AuditActionBalanceCredit = "balance_credit"
	AuditActionBalanceDebit  = "balance_debit"

	AuditActionMilestone = "milestone_complete"

	AuditActionAdminSetRank       = "admin_set_rank"
	AuditActionAdminSetBalance    = "admin_set_balance"
	AuditActionAdminSetMultiplier = "admin_set_multiplier"
)
