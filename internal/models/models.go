package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the top-level isolation boundary. Every application,
// conversation, and message belongs to exactly one organization; nothing
// is readable or writable across that line.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a person within an organization. Role drives what the UI shows;
// the backend only distinguishes roles where chat sender validation needs it.
type User struct {
	ID           uuid.UUID `json:"id"`
	OrgID        uuid.UUID `json:"org_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Conversation kinds. Internal conversations hang off an integration
// (routing key = application id); vendor conversations are free-standing
// (routing key = their own id).
const (
	ConversationInternal = "internal"
	ConversationVendor   = "vendor"
)

// Conversation statuses.
const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
)

// Conversation is a persisted chat thread, either internal (team) or
// vendor-facing. RoutingKey is the identifier live connections subscribe
// under; broadcasts for this thread are addressed to it.
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         uuid.UUID  `json:"org_id"`
	Type          string     `json:"type"`
	RoutingKey    string     `json:"routing_key"`
	Title         string     `json:"title"`
	VendorName    *string    `json:"vendor_name,omitempty"`
	Status        string     `json:"status"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Sender roles permitted on a message.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleVendor = "vendor"
)

// Message kinds.
const (
	MessageText   = "text"
	MessageAction = "action"
	MessageSystem = "system"
)

// Message is one chat entry. Immutable once created.
//
// ID is bigserial, not UUID: messages are the highest-volume table and a
// monotonically increasing int64 doubles as the ordering cursor. RoutingKey
// is denormalized from the owning conversation so broadcast never needs a
// second lookup.
type Message struct {
	ID             int64     `json:"id"`
	OrgID          uuid.UUID `json:"org_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	RoutingKey     string    `json:"routing_key"`
	SenderName     string    `json:"sender_name"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	Metadata       *string   `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Application statuses.
const (
	AppApproved = "approved"
	AppShadow   = "shadow"
	AppTrial    = "trial"
)

// Application is a subscribed SaaS product the organization tracks.
// Money columns are Postgres numerics; we carry them as strings so no
// float rounding ever touches a cost figure.
type Application struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"org_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Vendor      *string   `json:"vendor,omitempty"`
	Status      string    `json:"status"`
	MonthlyCost string    `json:"monthly_cost"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// License tracks seat counts and per-seat cost for one application.
type License struct {
	ID             uuid.UUID `json:"id"`
	OrgID          uuid.UUID `json:"org_id"`
	ApplicationID  uuid.UUID `json:"application_id"`
	TotalLicenses  int       `json:"total_licenses"`
	ActiveUsers    int       `json:"active_users"`
	CostPerLicense string    `json:"cost_per_license"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Renewal is an upcoming contract renewal for one application.
type Renewal struct {
	ID            uuid.UUID `json:"id"`
	OrgID         uuid.UUID `json:"org_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	RenewalDate   time.Time `json:"renewal_date"`
	AnnualCost    string    `json:"annual_cost"`
	ContractValue *string   `json:"contract_value,omitempty"`
	AutoRenew     bool      `json:"auto_renew"`
	Notified      bool      `json:"notified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recommendation is a cost-optimization suggestion tied to an application
// (downgrade, renew, track-users, review-renewal, cost-review).
type Recommendation struct {
	ID            uuid.UUID `json:"id"`
	OrgID         uuid.UUID `json:"org_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Priority      string    `json:"priority"`
	ActionLabel   string    `json:"action_label"`
	CurrentCost   *string   `json:"current_cost,omitempty"`
	PotentialCost *string   `json:"potential_cost,omitempty"`
	CurrentUsers  *int      `json:"current_users,omitempty"`
	ActiveUsers   *int      `json:"active_users,omitempty"`
	ContractValue *string   `json:"contract_value,omitempty"`
	RenewalDate   *string   `json:"renewal_date,omitempty"`
	Dismissed     bool      `json:"dismissed"`
	CreatedAt     time.Time `json:"created_at"`
}

// SpendingEntry is one month of aggregate spend, used by the dashboard chart.
type SpendingEntry struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	Month      string    `json:"month"`
	Year       int       `json:"year"`
	TotalSpend string    `json:"total_spend"`
	CreatedAt  time.Time `json:"created_at"`
}

// DashboardStats is the aggregate view over applications, licenses, and
// recommendations. Computed in SQL, cached briefly in Redis.
type DashboardStats struct {
	TotalApplications   int     `json:"total_applications"`
	TotalLicenses       int     `json:"total_licenses"`
	TotalActiveLicenses int     `json:"total_active_licenses"`
	MonthlySpend        float64 `json:"monthly_spend"`
	PotentialSavings    float64 `json:"potential_savings"`
}

// ValidSenderRole reports whether role is one of the permitted message
// sender roles.
func ValidSenderRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleVendor:
		return true
	}
	return false
}

// ValidMessageType reports whether t is a known message kind.
func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageAction, MessageSystem:
		return true
	}
	return false
}
