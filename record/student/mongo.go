package student

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/tanpawarit/record-agent/record"
)

// MongoCollection stores students as documents keyed by ObjectID. ObjectIDs
// grow with insertion time, so sorting on _id yields creation order.
type MongoCollection struct {
	coll *mongo.Collection
}

var _ Collection = (*MongoCollection)(nil)

type studentDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Age   int                `bson:"age"`
	Grade string             `bson:"grade"`
}

func (d studentDocument) toStudent() Student {
	return Student{ID: d.ID.Hex(), Name: d.Name, Age: d.Age, Grade: d.Grade}
}

func NewMongoCollection(db *mongo.Database, name string) *MongoCollection {
	return &MongoCollection{coll: db.Collection(name)}
}

// EnsureIndexes creates the non-unique name index used for name lookups.
func (c *MongoCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("name_id"),
	})
	if err != nil {
		return classifyMongo(fmt.Errorf("create name index: %w", err))
	}
	return nil
}

func (c *MongoCollection) Find(ctx context.Context, filter Filter, limit int) ([]Student, error) {
	query, ok := toBSON(filter)
	if !ok {
		return []Student{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := c.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, classifyMongo(err)
	}
	defer cursor.Close(ctx)

	out := make([]Student, 0)
	for cursor.Next(ctx) {
		var doc studentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode student: %w", err)
		}
		out = append(out, doc.toStudent())
	}
	if err := cursor.Err(); err != nil {
		return nil, classifyMongo(err)
	}
	return out, nil
}

func (c *MongoCollection) Insert(ctx context.Context, s Student) (string, error) {
	res, err := c.coll.InsertOne(ctx, studentDocument{Name: s.Name, Age: s.Age, Grade: s.Grade})
	if err != nil {
		return "", classifyMongo(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (c *MongoCollection) UpdateOne(ctx context.Context, filter Filter, fields Fields) (int64, error) {
	query, ok := toBSON(filter)
	if !ok {
		return 0, nil
	}
	res, err := c.coll.UpdateOne(ctx, query, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, classifyMongo(err)
	}
	return res.MatchedCount, nil
}

func (c *MongoCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	query, ok := toBSON(filter)
	if !ok {
		return 0, nil
	}
	res, err := c.coll.DeleteOne(ctx, query)
	if err != nil {
		return 0, classifyMongo(err)
	}
	return res.DeletedCount, nil
}

// toBSON reports false when the filter can never match, e.g. a malformed id.
func toBSON(filter Filter) (bson.M, bool) {
	query := bson.M{}
	if filter.ID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return nil, false
		}
		query["_id"] = oid
	}
	if filter.Name != "" {
		query["name"] = filter.Name
	}
	return query, true
}

func classifyMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", record.ErrConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %v", record.ErrConnectivity, err)
	}
	var selErr topology.ServerSelectionError
	if errors.As(err, &selErr) {
		return fmt.Errorf("%w: %v", record.ErrConnectivity, err)
	}
	return err
}
