package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDatabase is the database every collection is written to.
const MongoDatabase = "dgp"

// MongoDriver needs a replica set or sharded cluster, since ExecuteTx runs
// inside a multi-document transaction.
type MongoDriver struct {
	client *mongo.Client
}

func (md *MongoDriver) Name() string { return "mongo" }

func (md *MongoDriver) Connect(dsn string) error {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(dsn))
	if err != nil {
		return err
	}
	md.client = client
	return nil
}

func (md *MongoDriver) Close() error {
	if md.client == nil {
		return nil
	}
	return md.client.Disconnect(context.Background())
}

// Collection returns a handle on a collection of MongoDatabase.
func (md *MongoDriver) Collection(name string) *mongo.Collection {
	return md.client.Database(MongoDatabase).Collection(name)
}

func (md *MongoDriver) Reset(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		if err := md.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (md *MongoDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error {
	if md.client == nil {
		return errors.New("mongo: not connected")
	}
	session, err := md.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := txFunc(sessCtx); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}
