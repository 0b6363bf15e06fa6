// Package jsonstore persists tag/date-keyed JSON documents, the generic
// storage layer behind /api/json, /api/log and the LCSD builders.
package jsonstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davidkych/cursus-backend/internal/models"
)

const collectionName = "jsondocs"

var ErrNotFound = errors.New("jsonstore: item not found")

// Key addresses a single document. Tag is required; the remaining parts are
// optional and only present parts participate in the derived id.
type Key struct {
	Tag           string
	SecondaryTag  string
	TertiaryTag   string
	QuaternaryTag string
	QuinaryTag    string
	Year          *int
	Month         *int
	Day           *int
}

// ID joins the present key parts with underscores.
func (k Key) ID() string {
	parts := []string{k.Tag}
	for _, tag := range []string{k.SecondaryTag, k.TertiaryTag, k.QuaternaryTag, k.QuinaryTag} {
		if tag != "" {
			parts = append(parts, tag)
		}
	}
	for _, n := range []*int{k.Year, k.Month, k.Day} {
		if n != nil {
			parts = append(parts, strconv.Itoa(*n))
		}
	}
	return strings.Join(parts, "_")
}

type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(collectionName)}
}

// Upsert writes the document for the key, replacing any existing one.
func (s *Store) Upsert(ctx context.Context, key Key, data interface{}) (string, error) {
	doc := models.Document{
		ID:            key.ID(),
		Tag:           key.Tag,
		SecondaryTag:  key.SecondaryTag,
		TertiaryTag:   key.TertiaryTag,
		QuaternaryTag: key.QuaternaryTag,
		QuinaryTag:    key.QuinaryTag,
		Year:          key.Year,
		Month:         key.Month,
		Day:           key.Day,
		Data:          data,
		UpdatedAt:     time.Now().UTC(),
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Fetch returns the data payload of the document for the key.
func (s *Store) Fetch(ctx context.Context, key Key) (interface{}, error) {
	var doc models.Document
	err := s.coll.FindOne(ctx, bson.M{"_id": key.ID()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// Delete removes the document for the key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": key.ID()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Latest returns the most recently updated document for a tag pair.
func (s *Store) Latest(ctx context.Context, tag, secondaryTag string) (*models.Document, error) {
	var doc models.Document
	err := s.coll.FindOne(ctx,
		bson.M{"tag": tag, "secondary_tag": secondaryTag},
		options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
