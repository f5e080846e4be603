package catalog

import (
	"strings"

	"github.com/pkg/errors"

	"portq/broker_server/config"
	"portq/broker_server/core/topic"
)

// ITopicCatalog records the topics created by the running broker. It is a
// description of live state, not a source of it: nothing is restored from
// a catalog on startup.
type ITopicCatalog interface {
	Clear() error
	Put(descriptor topic.TopicDescriptor) error
	Get(name string) (*topic.TopicDescriptor, error)
	List() ([]topic.TopicDescriptor, error)
	Close() error
}

func NewTopicCatalog(c config.CatalogConfig) (catalog ITopicCatalog, err error) {
	switch strings.ToLower(c.Driver) {
	case "", config.CatalogDriverMemory:
		return NewInMemoryTopicCatalog(), nil
	case config.CatalogDriverRedis:
		catalog, err = NewRedisTopicCatalog(c.Server, c.Password)
	case config.CatalogDriverMySql:
		catalog, err = NewMySqlTopicCatalog(c.Server, c.Username, c.Password, c.Db)
	case config.CatalogDriverMongo:
		catalog, err = NewMongoTopicCatalog(c.Server, c.Db)
	default:
		return nil, errors.Errorf("unknown catalog driver %s", c.Driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s catalog", c.Driver)
	}
	return catalog, nil
}
