package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

const accountCollection = "accounts"

// MongoAccountRepository persists accounts. All lockout/challenge mutations
// are expressed as server-side atomic updates ($inc/$set/$unset) so
// concurrent login attempts for one account never lose writes.
type MongoAccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountCollection)}
}

type mongoAccount struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password_hash"`
	Role           string             `bson:"role"`
	FailedAttempts int                `bson:"failed_attempts"`
	LockedUntil    *time.Time         `bson:"locked_until,omitempty"`
	OTPHash        string             `bson:"otp_hash,omitempty"`
	OTPExpiresAt   *time.Time         `bson:"otp_expires_at,omitempty"`
	CreatedAt      int64              `bson:"created_at"`
	UpdatedAt      int64              `bson:"updated_at"`
}

func (m *mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:             m.ID.Hex(),
		Name:           m.Name,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		Role:           m.Role,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
		OTPHash:        m.OTPHash,
		OTPExpiresAt:   m.OTPExpiresAt,
		CreatedAt:      unixToTime(m.CreatedAt),
		UpdatedAt:      unixToTime(m.UpdatedAt),
	}
}

func (r *MongoAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	doc := mongoAccount{
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		CreatedAt:    account.CreatedAt.Unix(),
		UpdatedAt:    account.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var ma mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	var ma mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return ma.toDomain(), nil
}

// RecordFailure increments the failed-attempt counter with a server-side $inc
// and returns the post-increment value, so two concurrent wrong-password
// submissions observe distinct counts.
func (r *MongoAccountRepository) RecordFailure(ctx context.Context, id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}

	var ma mongoAccount
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"failed_attempts": 1},
			"$set": bson.M{"updated_at": time.Now().UTC().Unix()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ma)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("record failure: %w", err)
	}
	return ma.FailedAttempts, nil
}

// Lock sets the lock expiry and resets the counter in one update, guarded by
// the threshold so racing callers converge on a single lock.
func (r *MongoAccountRepository) Lock(ctx context.Context, id string, until time.Time, threshold int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "failed_attempts": bson.M{"$gte": threshold}},
		bson.M{"$set": bson.M{
			"locked_until":    until,
			"failed_attempts": 0,
			"updated_at":      time.Now().UTC().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

// SetChallenge stores the OTP digest and expiry while zeroing the lockout
// state, all in a single update.
func (r *MongoAccountRepository) SetChallenge(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set": bson.M{
				"failed_attempts": 0,
				"otp_hash":        otpHash,
				"otp_expires_at":  expiresAt,
				"updated_at":      time.Now().UTC().Unix(),
			},
			"$unset": bson.M{"locked_until": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("set challenge: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ClearChallenge removes both challenge fields together.
func (r *MongoAccountRepository) ClearChallenge(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$unset": bson.M{"otp_hash": "", "otp_expires_at": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC().Unix()},
		},
	)
	if err != nil {
		return fmt.Errorf("clear challenge: %w", err)
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
