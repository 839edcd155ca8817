package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect dials MongoDB, pings the primary and returns the client together
// with the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// objectID parses a hex id. Malformed ids cannot exist in the store, so
// callers treat ok=false as not found.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// requestedIDs groups ids by the ObjectID they parse to, keeping each
// spelling the caller used. Malformed ids are dropped.
func requestedIDs(ids []string) map[primitive.ObjectID][]string {
	out := make(map[primitive.ObjectID][]string, len(ids))
	for _, id := range ids {
		oid, ok := objectID(id)
		if !ok || slices.Contains(out[oid], id) {
			continue
		}
		out[oid] = append(out[oid], id)
	}
	return out
}

// notFound maps mongo.ErrNoDocuments to a typed NotFoundError.
func notFound(err error, kind string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFound(kind)
	}
	return fmt.Errorf("find %s: %w", kind, err)
}

// duplicateField names the unique user field a duplicate-key error refers to.
func duplicateField(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "username_1") || strings.Contains(msg, "{ username:") {
		return "username"
	}
	return "email"
}

func findOptions(skip, limit int) *options.FindOptions {
	return options.Find().
		SetSort(sortNewestFirst).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
}
