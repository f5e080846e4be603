package catalog

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"portq/broker_server/core/topic"
	"portq/common/mongo"
)

const mongoTopicCollection = "portq_topics"

type MongoTopicCatalog struct {
	manager    mongo.IManager
	collection mongo.ICollection
}

func NewMongoTopicCatalog(uri, db string) (*MongoTopicCatalog, error) {
	manager, err := mongo.NewManager(uri, db)
	if err != nil {
		return nil, err
	}
	return &MongoTopicCatalog{manager, manager.Collection(mongoTopicCollection)}, nil
}

func (c *MongoTopicCatalog) Clear() error {
	return c.collection.DeleteMany(bson.M{})
}

func (c *MongoTopicCatalog) Put(d topic.TopicDescriptor) error {
	return c.collection.Upsert(d.Name, d)
}

func (c *MongoTopicCatalog) Get(name string) (*topic.TopicDescriptor, error) {
	var d topic.TopicDescriptor
	err := c.collection.FindOne(bson.M{"_id": name}, &d)
	if mongo.IsNotFound(err) {
		return nil, topic.NewTopicNotFoundError(name)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *MongoTopicCatalog) List() ([]topic.TopicDescriptor, error) {
	var all []topic.TopicDescriptor
	if err := c.collection.FindAll(bson.M{}, &all); err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (c *MongoTopicCatalog) Close() error {
	return c.manager.Close()
}
