package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

const auditCollection = "audit_logs"

// MongoAuditRepository is an insert-only sink for audit entries. Reads are
// served by external tooling, not this service.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEntry struct {
	AccountID string    `bson:"account_id,omitempty"`
	Email     string    `bson:"email,omitempty"`
	Action    string    `bson:"action"`
	Status    string    `bson:"status"`
	Detail    string    `bson:"detail,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

func (r *MongoAuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	doc := mongoAuditEntry{
		AccountID: entry.AccountID,
		Email:     entry.Email,
		Action:    entry.Action,
		Status:    entry.Status,
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
