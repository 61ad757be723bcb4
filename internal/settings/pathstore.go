package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/jsonlens/internal/pathstore"
)

// NodeStore is the subset of the pathstore client used for persistence.
type NodeStore interface {
	GetNode(ctx context.Context, key string) (*pathstore.NodeResponse, error)
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
}

// PathstoreBackend keeps the settings as a single JSON node.
type PathstoreBackend struct {
	client NodeStore
	key    string
}

func NewPathstoreBackend(client NodeStore, key string) *PathstoreBackend {
	return &PathstoreBackend{client: client, key: key}
}

func (b *PathstoreBackend) Load(ctx context.Context) (Settings, bool, error) {
	node, err := b.client.GetNode(ctx, b.key)
	if err != nil {
		return Settings{}, false, err
	}
	if node == nil || len(node.Value) == 0 || string(node.Value) == "null" {
		return Settings{}, false, nil
	}

	// Start from defaults so fields missing from older nodes keep them.
	s := Default()
	if err := json.Unmarshal(node.Value, &s); err != nil {
		return Settings{}, false, fmt.Errorf("decode settings node %s: %w", b.key, err)
	}
	return s, true, nil
}

func (b *PathstoreBackend) Save(ctx context.Context, s Settings) error {
	return b.client.PutNode(ctx, b.key, pathstore.NodeRequest{
		Value:     s,
		MergeMode: "replace",
		Source:    "jsonlens",
	})
}
