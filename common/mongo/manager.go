package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

type MongoManagerError struct {
	msg string
}

func (mme *MongoManagerError) Error() string {
	return mme.msg
}

func newMongoManagerError(msg string) *MongoManagerError {
	return &MongoManagerError{msg}
}

type ICollection interface {
	Name() string
	Upsert(id interface{}, doc interface{}) error
	FindOne(filter interface{}, holder interface{}) error
	FindAll(filter interface{}, container interface{}) error
	DeleteMany(filter interface{}) error
}

// Collection bounds every call with the manager's operation timeout.
type Collection struct {
	c       *mongo.Collection
	timeout time.Duration
}

func (c *Collection) Name() string {
	return c.c.Name()
}

func (c *Collection) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *Collection) Upsert(id interface{}, doc interface{}) error {
	ctx, cancel := c.opContext()
	defer cancel()
	_, err := c.c.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "upsert into %s", c.Name())
}

func (c *Collection) FindOne(filter interface{}, holder interface{}) error {
	ctx, cancel := c.opContext()
	defer cancel()
	err := c.c.FindOne(ctx, filter).Decode(holder)
	if err == mongo.ErrNoDocuments {
		return err
	}
	return errors.Wrapf(err, "find in %s", c.Name())
}

// container should be a pointer to a slice
func (c *Collection) FindAll(filter interface{}, container interface{}) error {
	ctx, cancel := c.opContext()
	defer cancel()
	cursor, err := c.c.Find(ctx, filter)
	if err != nil {
		return errors.Wrapf(err, "find in %s", c.Name())
	}
	return errors.Wrapf(cursor.All(ctx, container), "decode %s", c.Name())
}

func (c *Collection) DeleteMany(filter interface{}) error {
	ctx, cancel := c.opContext()
	defer cancel()
	_, err := c.c.DeleteMany(ctx, filter)
	return errors.Wrapf(err, "delete from %s", c.Name())
}

func IsNotFound(err error) bool {
	return errors.Cause(err) == mongo.ErrNoDocuments
}

type IManager interface {
	Collection(name string) ICollection
	Close() error
}

type Manager struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

func NewManager(uri string, database string) (*Manager, error) {
	if database == "" {
		return nil, newMongoManagerError("database name is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect Mongo server")
	}
	if err = client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "Unable to reach Mongo server")
	}
	return &Manager{client, client.Database(database), defaultTimeout}, nil
}

func (m *Manager) Collection(name string) ICollection {
	return &Collection{m.db.Collection(name), m.timeout}
}

func (m *Manager) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "Unable to disconnect mongoDB")
	}
	return nil
}
