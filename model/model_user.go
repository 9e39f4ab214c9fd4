package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID `json:"id"        bson:"_id,omitempty"`
	Username     string        `json:"username"  bson:"username"`
	Email        string        `json:"email"     bson:"email"`
	PasswordHash string        `json:"-"         bson:"password_hash"`
	DisplayName  string        `json:"displayName" bson:"display_name"`
	Bio          string        `json:"bio"       bson:"bio"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updated_at"`
}
