package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionDeclined ConnectionStatus = "declined"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

// Connection is the single document for an unordered user pair. The unique
// index is built on (pair_lo, pair_hi), the canonical ordering of the two ids,
// so a second request in either direction collides with the first.
type Connection struct {
	ID          bson.ObjectID    `json:"id"          bson:"_id,omitempty"`
	RequesterID bson.ObjectID    `json:"requesterId" bson:"requester_id"`
	RecipientID bson.ObjectID    `json:"recipientId" bson:"recipient_id"`
	PairLo      bson.ObjectID    `json:"-"           bson:"pair_lo"`
	PairHi      bson.ObjectID    `json:"-"           bson:"pair_hi"`
	Status      ConnectionStatus `json:"status"      bson:"status"`
	Message     string           `json:"message"     bson:"message"`
	CreatedAt   time.Time        `json:"createdAt"   bson:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt"   bson:"updated_at"`
}

// OtherParty returns the participant that is not userID.
func (c *Connection) OtherParty(userID bson.ObjectID) bson.ObjectID {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

// Involves reports whether userID is either party of the connection.
func (c *Connection) Involves(userID bson.ObjectID) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}
