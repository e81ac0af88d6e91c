package workspace

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoCollection = "graphs"

type mongoRecord struct {
	ID       string    `bson:"_id"`
	Name     string    `bson:"name"`
	Document string    `bson:"document"`
	SavedAt  time.Time `bson:"savedAt"`
}

// MongoStore keeps saved graphs in a MongoDB collection. Documents are
// stored as JSON strings so they round-trip byte for byte.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string // Defaults to "graphs"
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	coll := cfg.Collection
	if coll == "" {
		coll = defaultMongoCollection
	}
	return &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(coll)}, nil
}

func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	doc := mongoRecord{ID: rec.ID, Name: rec.Name, Document: string(rec.Document), SavedAt: rec.SavedAt}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (Record, error) {
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Record{}, notFound(id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("mongo load %s: %w", id, err)
	}
	return Record{ID: doc.ID, Name: doc.Name, Document: []byte(doc.Document), SavedAt: doc.SavedAt}, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"document": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = Summary{ID: d.ID, Name: d.Name, SavedAt: d.SavedAt}
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
