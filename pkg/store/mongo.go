package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// Defaults for MongoStore.
const (
	DefaultMongoDatabase   = "cellgraph"
	DefaultMongoCollection = "workbooks"
)

// MongoStore keeps each workbook as one document keyed by its name.
// Unlike the other backends the cells are stored as structured records
// rather than XML, so they can be queried from the Mongo shell.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoWorkbook struct {
	Name      string      `bson:"_id"`
	Pattern   string      `bson:"pattern,omitempty"`
	Cells     []mongoCell `bson:"cells,omitempty"`
	Count     int         `bson:"count"`
	Digest    string      `bson:"digest"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

type mongoCell struct {
	Name     string `bson:"name"`
	Contents string `bson:"contents"`
}

// NewMongoStore connects to the MongoDB deployment at uri and uses the
// given database, or DefaultMongoDatabase if empty.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongo store: uri is required")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo store: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo store: ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(DefaultMongoCollection),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var wb mongoWorkbook
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&wb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo store: get: %w", err)
	}
	doc := &pkgio.Document{Pattern: wb.Pattern, Cells: make([]pkgio.Record, len(wb.Cells))}
	for i, c := range wb.Cells {
		doc.Cells[i] = pkgio.Record{Name: c.Name, Contents: c.Contents}
	}
	return doc, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	enc, err := encode(doc)
	if err != nil {
		return err
	}
	wb := mongoWorkbook{
		Name:      name,
		Pattern:   doc.Pattern,
		Cells:     make([]mongoCell, len(doc.Cells)),
		Count:     enc.cells,
		Digest:    enc.digest,
		UpdatedAt: s.now().UTC(),
	}
	for i, r := range doc.Cells {
		wb.Cells[i] = mongoCell{Name: r.Name, Contents: r.Contents}
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, wb, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo store: put: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("mongo store: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"cells": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo store: list: %w", err)
	}
	defer cur.Close(ctx)

	var infos []Info
	for cur.Next(ctx) {
		var wb mongoWorkbook
		if err := cur.Decode(&wb); err != nil {
			return nil, fmt.Errorf("mongo store: decode: %w", err)
		}
		infos = append(infos, Info{Name: wb.Name, Cells: wb.Count, Digest: wb.Digest, UpdatedAt: wb.UpdatedAt.UTC()})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo store: list: %w", err)
	}
	return infos, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
