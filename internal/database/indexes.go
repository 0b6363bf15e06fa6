package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
	}

	log.Println("EnsureUserIndexes: creating username_unique, email_unique indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureScheduleIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("schedules").Indexes()

	instanceIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "instanceId", Value: 1}},
		Options: options.Index().
			SetName("instanceId_unique").
			SetUnique(true),
	}

	log.Println("EnsureScheduleIndexes: creating instanceId_unique index")
	_, err := indexes.CreateOne(ctx, instanceIndex)
	if err != nil {
		log.Println("EnsureScheduleIndexes: instanceId index error:", err)
		return err
	}
	return nil
}

func EnsureDocumentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("jsondocs").Indexes()

	tagIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "tag", Value: 1},
			{Key: "secondary_tag", Value: 1},
			{Key: "updatedAt", Value: -1},
		},
		Options: options.Index().SetName("tag_secondary_updated"),
	}

	log.Println("EnsureDocumentIndexes: creating tag_secondary_updated index")
	_, err := indexes.CreateOne(ctx, tagIndex)
	if err != nil {
		log.Println("EnsureDocumentIndexes: tag index error:", err)
		return err
	}
	return nil
}
