package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment is embedded in its post; insertion order is display order.
type Comment struct {
	ID        bson.ObjectID `json:"id"        bson:"_id"`
	UserID    bson.ObjectID `json:"userId"    bson:"user_id"`
	Text      string        `json:"text"      bson:"text"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

type Post struct {
	ID        bson.ObjectID   `json:"id"        bson:"_id,omitempty"`
	UserID    bson.ObjectID   `json:"userId"    bson:"user_id"`
	Body      string          `json:"body"      bson:"body"`
	Tags      []string        `json:"tags"      bson:"tags"`
	Published bool            `json:"published" bson:"published"`
	Likes     []bson.ObjectID `json:"likes"     bson:"likes"`
	Comments  []Comment       `json:"comments"  bson:"comments"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
}

// Normalize backfills the containers that older documents stored as null.
// Ranking code relies on Likes and Comments never being nil.
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []bson.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID bson.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
