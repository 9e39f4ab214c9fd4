package feed

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/commune-app/backend/model"
)

// ViewerContext is the requesting user plus their resolved connection set.
// The set always contains the viewer's own id: self-authored posts rank as
// connection posts.
type ViewerContext struct {
	UserID    bson.ObjectID
	Connected map[bson.ObjectID]struct{}
}

func (v ViewerContext) IsConnected(id bson.ObjectID) bool {
	_, ok := v.Connected[id]
	return ok
}

// ConnectionCount excludes the viewer themself.
func (v ViewerContext) ConnectionCount() int {
	if len(v.Connected) == 0 {
		return 0
	}
	return len(v.Connected) - 1
}

// ConnectedIDs returns the set as a slice for use in store filters.
func (v ViewerContext) ConnectedIDs() []bson.ObjectID {
	ids := make([]bson.ObjectID, 0, len(v.Connected))
	for id := range v.Connected {
		ids = append(ids, id)
	}
	return ids
}

// ResolveViewer builds the viewer context from the connection store. Only
// accepted connections count, and the relation is symmetric: the viewer is
// connected to the other party no matter who initiated.
func ResolveViewer(ctx context.Context, store ConnectionStore, viewerID bson.ObjectID) (ViewerContext, error) {
	conns, err := store.ConnectionsFor(ctx, viewerID)
	if err != nil {
		return ViewerContext{}, fmt.Errorf("resolve connections: %w", ErrStoreUnavailable)
	}

	connected := map[bson.ObjectID]struct{}{viewerID: {}}
	for i := range conns {
		c := &conns[i]
		if c.Status != model.ConnectionAccepted || !c.Involves(viewerID) {
			continue
		}
		connected[c.OtherParty(viewerID)] = struct{}{}
	}
	return ViewerContext{UserID: viewerID, Connected: connected}, nil
}
