package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/commune-app/backend/model"
)

var (
	ErrSelfConnection = errors.New("repository: cannot connect to yourself")
	ErrDuplicatePair  = errors.New("repository: connection already exists for this pair")
	ErrBadTransition  = errors.New("repository: invalid status transition")
)

// ConnectionRepository owns the connections collection and implements
// feed.ConnectionStore.
type ConnectionRepository struct {
	col *mongo.Collection
}

func NewConnectionRepository(db *mongo.Database) *ConnectionRepository {
	return &ConnectionRepository{col: db.Collection("connections")}
}

// CanonicalPair orders two ids so the unordered pair has one stable
// representation. The unique index on (pair_lo, pair_hi) then rejects a
// second document for the same pair regardless of request direction.
func CanonicalPair(a, b bson.ObjectID) (lo, hi bson.ObjectID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// ValidateTransition enforces the linear status lifecycle: only the recipient
// resolves a pending request, and resolved states are terminal except that
// either party may block at any time.
func ValidateTransition(from, to model.ConnectionStatus, isRecipient bool) error {
	if to == model.ConnectionBlocked {
		return nil
	}
	if from != model.ConnectionPending {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}
	if to != model.ConnectionAccepted && to != model.ConnectionDeclined {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}
	if !isRecipient {
		return fmt.Errorf("%w: only the recipient can respond", ErrBadTransition)
	}
	return nil
}

// Request creates a pending connection from requester to recipient.
func (r *ConnectionRepository) Request(ctx context.Context, requester, recipient bson.ObjectID, message string) (*model.Connection, error) {
	if requester == recipient {
		return nil, ErrSelfConnection
	}
	lo, hi := CanonicalPair(requester, recipient)
	now := time.Now().UTC()
	conn := model.Connection{
		ID:          bson.NewObjectID(),
		RequesterID: requester,
		RecipientID: recipient,
		PairLo:      lo,
		PairHi:      hi,
		Status:      model.ConnectionPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, conn); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicatePair
		}
		return nil, err
	}
	return &conn, nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Connection, error) {
	var c model.Connection
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConnectionsFor returns every connection the user is party to, any status.
// Bounded by the user's connection count; no pagination.
func (r *ConnectionRepository) ConnectionsFor(ctx context.Context, userID bson.ObjectID) ([]model.Connection, error) {
	return r.find(ctx, partyFilter(userID))
}

// ListForUser returns the user's connections restricted to one status.
func (r *ConnectionRepository) ListForUser(ctx context.Context, userID bson.ObjectID, status model.ConnectionStatus) ([]model.Connection, error) {
	f := partyFilter(userID)
	f["status"] = status
	return r.find(ctx, f)
}

// Respond moves a connection through its lifecycle on behalf of userID.
func (r *ConnectionRepository) Respond(ctx context.Context, id, userID bson.ObjectID, to model.ConnectionStatus) (*model.Connection, error) {
	conn, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.Involves(userID) {
		return nil, ErrForbidden
	}
	if err := ValidateTransition(conn.Status, to, conn.RecipientID == userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": conn.Status},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// Raced with another transition; re-read would show the winner.
		return nil, ErrBadTransition
	}
	conn.Status = to
	conn.UpdatedAt = now
	return conn, nil
}

// Remove deletes a connection the user is party to.
func (r *ConnectionRepository) Remove(ctx context.Context, id, userID bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "$or": []bson.M{
		{"requester_id": userID},
		{"recipient_id": userID},
	}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func partyFilter(userID bson.ObjectID) bson.M {
	return bson.M{"$or": []bson.M{
		{"requester_id": userID},
		{"recipient_id": userID},
	}}
}

func (r *ConnectionRepository) find(ctx context.Context, filter bson.M) ([]model.Connection, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []model.Connection
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
