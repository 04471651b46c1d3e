package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/models"
)

// Every method takes ctx first (all of these do I/O) and an orgID wherever
// it reads or writes tenant data. The org scope is part of the WHERE clause
// in every implementation — never trusted to be pre-checked by the caller.
// Even a caller holding a valid conversation UUID gets nothing back unless
// the organization matches.
//
// Lookups return (nil, nil) when the row doesn't exist; handlers translate
// that to 404. Errors are reserved for real failures.

// OrganizationRepository manages the tenant boundary itself.
type OrganizationRepository interface {
	Create(ctx context.Context, name string) (*models.Organization, error)
}

// UserRepository handles account data.
type UserRepository interface {
	Create(ctx context.Context, orgID uuid.UUID, email, displayName, role, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) (*models.User, error)

	// GetByEmail is global, not org-scoped: it backs login, where the
	// org isn't known until the user is found.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ConversationRepository handles chat thread persistence.
type ConversationRepository interface {
	// Create inserts conv and returns it with ID and CreatedAt populated.
	// The caller is responsible for the one-internal-thread-per-routing-key
	// check (lookup before create).
	Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)

	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Conversation, error)
	GetByRoutingKey(ctx context.Context, orgID uuid.UUID, routingKey string) (*models.Conversation, error)

	// ListByOrg returns the org's conversations, newest activity first.
	// convType filters to "internal" or "vendor"; empty means all.
	ListByOrg(ctx context.Context, orgID uuid.UUID, convType string) ([]models.Conversation, error)

	// TouchLastMessage bumps last_message_at after a successful send.
	TouchLastMessage(ctx context.Context, orgID uuid.UUID, id uuid.UUID, at time.Time) error

	SetStatus(ctx context.Context, orgID uuid.UUID, id uuid.UUID, status string) (bool, error)

	// Delete removes the conversation; messages go with it (FK cascade).
	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}

// MessageRepository handles chat message persistence. Messages are
// append-only — there is deliberately no update or single delete.
type MessageRepository interface {
	// Create persists msg and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	// ListByRoutingKey returns history in chronological order. after=0
	// starts from the beginning; otherwise only messages with ID > after.
	ListByRoutingKey(ctx context.Context, orgID uuid.UUID, routingKey string, after int64, limit int) ([]models.Message, error)
}

// ApplicationRepository tracks the org's subscribed SaaS products.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Application, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Application, error)

	// Update writes all mutable fields; reports false if the row is gone.
	Update(ctx context.Context, app *models.Application) (bool, error)

	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}

// LicenseRepository tracks seat allocation per application.
type LicenseRepository interface {
	Create(ctx context.Context, lic *models.License) (*models.License, error)
	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.License, error)
	GetByApplication(ctx context.Context, orgID uuid.UUID, applicationID uuid.UUID) (*models.License, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.License, error)
	Update(ctx context.Context, lic *models.License) (bool, error)
	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}

// RenewalRepository tracks contract renewal dates.
type RenewalRepository interface {
	Create(ctx context.Context, r *models.Renewal) (*models.Renewal, error)
	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Renewal, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Renewal, error)
	ListByApplication(ctx context.Context, orgID uuid.UUID, applicationID uuid.UUID) ([]models.Renewal, error)
	Update(ctx context.Context, r *models.Renewal) (bool, error)
	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}

// RecommendationRepository tracks cost-optimization suggestions.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) (*models.Recommendation, error)
	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Recommendation, error)

	// ListByOrg returns only undismissed recommendations.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Recommendation, error)

	Update(ctx context.Context, rec *models.Recommendation) (bool, error)
	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}

// SpendingRepository tracks monthly aggregate spend for the dashboard chart.
type SpendingRepository interface {
	Create(ctx context.Context, e *models.SpendingEntry) (*models.SpendingEntry, error)

	// ListByOrg returns entries in chronological order (year, then month).
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.SpendingEntry, error)
}

// StatsRepository computes the dashboard aggregates in SQL.
type StatsRepository interface {
	DashboardStats(ctx context.Context, orgID uuid.UUID) (*models.DashboardStats, error)
}
