// Package domain defines the persistence models for users, orders, order
// files, change requests, notifications, and pricing configuration. These
// types are mapped with GORM and form the core data layer of the homework
// marketplace backend.
package domain

import (
	"time"
)

// Role identifies what a user is allowed to do in the marketplace.
type Role string

// Marketplace roles. RoleSuperAgent is the operator role: it runs the
// platform and may drive any order through the workflow.
const (
	RoleStudent     Role = "student"
	RoleAgent       Role = "agent"
	RoleWorker      Role = "worker"
	RoleSuperWorker Role = "super_worker"
	RoleSuperAgent  Role = "super_agent"
)

// KnownRole reports whether r is one of the marketplace roles.
func KnownRole(r Role) bool {
	switch r {
	case RoleStudent, RoleAgent, RoleWorker, RoleSuperWorker, RoleSuperAgent:
		return true
	}
	return false
}

// Status is the lifecycle state of an order. Transition legality between
// statuses is defined in the workflow package.
type Status string

// Order lifecycle states.
const (
	StatusPaymentApproval       Status = "payment_approval"
	StatusAssignedToSuperWorker Status = "assigned_to_super_worker"
	StatusAssignedToWorker      Status = "assigned_to_worker"
	StatusInProgress            Status = "in_progress"
	StatusWorkerDraft           Status = "worker_draft"
	StatusRequestedChanges      Status = "requested_changes"
	StatusFinalPaymentApproval  Status = "final_payment_approval"
	StatusWordCountChange       Status = "word_count_change"
	StatusDeadlineChange        Status = "deadline_change"
	StatusDeclined              Status = "declined"
	StatusRefund                Status = "refund"
	StatusCompleted             Status = "completed"
)

// FilePhase records which stage of the workflow produced an order file.
type FilePhase string

// Order file phases, in workflow order.
const (
	PhaseStudentOriginal   FilePhase = "student_original"
	PhaseWorkerDraft       FilePhase = "worker_draft"
	PhaseSuperWorkerReview FilePhase = "super_worker_review"
	PhaseFinalApproved     FilePhase = "final_approved"
)

// ChangeKind discriminates the three flavors of change-request rows.
type ChangeKind string

// Change request kinds. Student feedback carries notes and files only;
// proposals additionally snapshot the pre-proposal order values so a
// rejection can restore them exactly.
const (
	ChangeStudentFeedback   ChangeKind = "student_feedback"
	ChangeWordCountProposal ChangeKind = "word_count_proposal"
	ChangeDeadlineProposal  ChangeKind = "deadline_proposal"
)

// NotificationSource distinguishes workflow-generated notifications from
// operator broadcasts.
type NotificationSource string

const (
	SourceSystem    NotificationSource = "system"
	SourceBroadcast NotificationSource = "broadcast"
)

// Earnings is the per-order split snapshot persisted as JSON on the order.
// Agent is nil when no agent share applies. Profit may be negative.
type Earnings struct {
	Total       float64  `json:"total"`
	Agent       *float64 `json:"agent,omitempty"`
	SuperWorker float64  `json:"super_worker"`
	Profit      float64  `json:"profit"`
}

// FileRef is a name + locator pair for an uploaded file. Blob storage is
// external; only the locator is persisted.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// User represents a marketplace account. Identity verification happens
// upstream; this row carries the role and the referral linkage that binds
// a student's orders to an agent.
type User struct {
	ID         string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Name       string    `json:"name"        gorm:"type:varchar(255);not null"`
	Email      string    `json:"email"       gorm:"type:varchar(255);not null;uniqueIndex"`
	Role       Role      `json:"role"        gorm:"type:varchar(16);not null;index"`
	ReferredBy string    `json:"referred_by,omitempty" gorm:"type:varchar(64);index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ReferenceCode is a registration code handed out by operators. Registering
// with a code grants its role and records the code owner as referrer.
type ReferenceCode struct {
	Code      string    `json:"code"       gorm:"type:varchar(32);primaryKey"`
	OwnerID   string    `json:"owner_id"   gorm:"type:varchar(64);not null;index"`
	Role      Role      `json:"role"       gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ReferenceCode.
func (ReferenceCode) TableName() string { return "reference_codes" }

// Order is the central aggregate: one homework assignment travelling
// through the workflow.
//
// The student is immutable after creation. The agent link is derived from
// the student's referrer at submission time and never changes. Worker and
// super-worker are assigned by operators. Price and Earnings are snapshots
// recomputed only by explicit workflow operations, never retroactively on
// configuration changes. Version is an optimistic-concurrency counter:
// every workflow update matches on it and increments it.
type Order struct {
	ID            string    `json:"id"              gorm:"type:char(5);primaryKey"`
	StudentID     string    `json:"student_id"      gorm:"type:varchar(64);not null;index"`
	AgentID       string    `json:"agent_id,omitempty"        gorm:"type:varchar(64);index"`
	WorkerID      string    `json:"worker_id,omitempty"       gorm:"type:varchar(64);index"`
	SuperWorkerID string    `json:"super_worker_id,omitempty" gorm:"type:varchar(64);index"`
	Status        Status    `json:"status"          gorm:"type:varchar(32);not null;index"`
	ModuleName    string    `json:"module_name"     gorm:"type:varchar(255);not null"`
	WordCount     int       `json:"word_count"      gorm:"not null"`
	Deadline      time.Time `json:"deadline"        gorm:"not null"`
	Notes         string    `json:"notes,omitempty" gorm:"type:text"`
	Price         float64   `json:"price"           gorm:"not null"`
	Earnings      Earnings  `json:"earnings"        gorm:"serializer:json;type:text"`
	Version       int64     `json:"version"         gorm:"not null;default:1"`
	CreatedAt     time.Time `json:"created_at"      gorm:"index"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderFile is one uploaded document attached to an order. Uploading a new
// batch for a phase flips is_latest off on the prior rows of that phase;
// superseded rows are kept for history.
type OrderFile struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	OrderID    string    `json:"order_id"    gorm:"type:char(5);not null;index:idx_order_files,priority:1"`
	Phase      FilePhase `json:"phase"       gorm:"type:varchar(32);not null;index:idx_order_files,priority:2"`
	Name       string    `json:"name"        gorm:"type:varchar(255);not null"`
	URL        string    `json:"url"         gorm:"type:text;not null"`
	UploadedBy string    `json:"uploaded_by" gorm:"type:varchar(64);not null"`
	IsLatest   bool      `json:"is_latest"   gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for OrderFile.
func (OrderFile) TableName() string { return "order_files" }

// ChangeRequest records student feedback or a super-worker proposal against
// an order. Proposal rows snapshot the prior order values (word count,
// deadline, price, earnings) so rejecting the proposal restores the order
// without recomputation drift.
type ChangeRequest struct {
	ID      string     `json:"id"       gorm:"type:char(36);primaryKey"`
	OrderID string     `json:"order_id" gorm:"type:char(5);not null;index"`
	Kind    ChangeKind `json:"kind"     gorm:"type:varchar(32);not null"`
	Notes   string     `json:"notes"    gorm:"type:text;not null"`
	Files   []FileRef  `json:"files,omitempty" gorm:"serializer:json;type:text"`

	// Proposal payload: requested new values plus the prior snapshot.
	NewWordCount  int       `json:"new_word_count,omitempty"`
	NewDeadline   time.Time `json:"new_deadline,omitempty"`
	PrevWordCount int       `json:"prev_word_count,omitempty"`
	PrevDeadline  time.Time `json:"prev_deadline,omitempty"`
	PrevPrice     float64   `json:"prev_price,omitempty"`
	PrevEarnings  Earnings  `json:"prev_earnings,omitempty" gorm:"serializer:json;type:text"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ChangeRequest.
func (ChangeRequest) TableName() string { return "change_requests" }

// Notification is an append-only message addressed to a user (or, for
// legacy role feeds, a role pseudo-id). Notifications are never deleted;
// reads only flip the IsRead flag.
type Notification struct {
	ID        string             `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string             `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Message   string             `json:"message"    gorm:"type:text;not null"`
	IsRead    bool               `json:"is_read"    gorm:"not null;default:false"`
	OrderID   string             `json:"order_id,omitempty" gorm:"type:char(5);index"`
	Source    NotificationSource `json:"source"     gorm:"type:varchar(16);not null;default:'system'"`
	CreatedAt time.Time          `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// NotificationTemplate is an operator-edited override of a built-in
// template. Lookup falls back to the built-in text when no row exists.
type NotificationTemplate struct {
	TemplateID  string    `json:"template_id" gorm:"type:varchar(64);primaryKey"`
	Name        string    `json:"name"        gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Template    string    `json:"template"    gorm:"type:text;not null"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for NotificationTemplate.
func (NotificationTemplate) TableName() string { return "notification_templates" }

// SuperWorkerFee is a per-super-worker override of the global fulfiller
// rate, as a flat amount per 500 words. Created with the global default
// when the role is granted.
type SuperWorkerFee struct {
	SuperWorkerID string    `json:"super_worker_id" gorm:"type:varchar(64);primaryKey"`
	FeePer500     float64   `json:"fee_per_500"     gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for SuperWorkerFee.
func (SuperWorkerFee) TableName() string { return "super_worker_fees" }

// AgentFee is a per-agent override of the global agent commission rate,
// as a flat amount per 500 words.
type AgentFee struct {
	AgentID   string    `json:"agent_id"    gorm:"type:varchar(64);primaryKey"`
	FeePer500 float64   `json:"fee_per_500" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for AgentFee.
func (AgentFee) TableName() string { return "agent_fees" }

// AgentPricing replaces the global word-tier table for orders attributed
// to one agent. Deadline surcharges always come from the global table.
type AgentPricing struct {
	AgentID   string          `json:"agent_id"   gorm:"type:varchar(64);primaryKey"`
	WordTiers map[int]float64 `json:"word_tiers" gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for AgentPricing.
func (AgentPricing) TableName() string { return "agent_pricing" }

// PricingSettingsID is the primary key of the singleton global pricing row.
const PricingSettingsID = "main"

// PricingSettings is the singleton global pricing configuration: the word
// tier table, the deadline surcharge bands, and the default fee rates used
// when a user has no override row. Seeded at startup if absent.
type PricingSettings struct {
	ID             string          `json:"id"              gorm:"type:varchar(16);primaryKey"`
	WordTiers      map[int]float64 `json:"word_tiers"      gorm:"serializer:json;type:text;not null"`
	DeadlineTiers  map[int]float64 `json:"deadline_tiers"  gorm:"serializer:json;type:text;not null"`
	AgentFee       float64         `json:"agent_fee"       gorm:"not null"`
	SuperWorkerFee float64         `json:"super_worker_fee" gorm:"not null"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName returns the database table name for PricingSettings.
func (PricingSettings) TableName() string { return "pricing_settings" }
