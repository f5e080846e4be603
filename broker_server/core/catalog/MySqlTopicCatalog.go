package catalog

import (
	"github.com/pkg/errors"

	"portq/broker_server/core/topic"
	"portq/common/mysql"
)

type MySqlTopicCatalog struct {
	manager mysql.ISQLManager
}

func NewMySqlTopicCatalog(server, username, password, db string) (*MySqlTopicCatalog, error) {
	manager, err := mysql.NewSQLManager(server, username, password, db)
	if err != nil {
		return nil, err
	}
	return NewMySqlTopicCatalogWithManager(manager)
}

func NewMySqlTopicCatalogWithManager(manager mysql.ISQLManager) (*MySqlTopicCatalog, error) {
	if err := manager.Migrate(&topic.TopicDescriptor{}); err != nil {
		manager.Close()
		return nil, err
	}
	return &MySqlTopicCatalog{manager}, nil
}

func (c *MySqlTopicCatalog) Clear() error {
	return errors.Wrap(c.manager.DeleteAll(&topic.TopicDescriptor{}), "clear catalog")
}

func (c *MySqlTopicCatalog) Put(d topic.TopicDescriptor) error {
	d.Depth = 0
	return errors.Wrapf(c.manager.Upsert(&d), "store topic %s", d.Name)
}

func (c *MySqlTopicCatalog) Get(name string) (*topic.TopicDescriptor, error) {
	holder := &topic.TopicDescriptor{Name: name}
	err := c.manager.First(holder)
	if mysql.IsNotFound(err) {
		return nil, topic.NewTopicNotFoundError(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load topic %s", name)
	}
	return holder, nil
}

func (c *MySqlTopicCatalog) List() ([]topic.TopicDescriptor, error) {
	var all []topic.TopicDescriptor
	if err := c.manager.DB().Order("name").Find(&all).Error; err != nil {
		return nil, errors.Wrap(err, "list catalog topics")
	}
	return all, nil
}

func (c *MySqlTopicCatalog) Close() error {
	return c.manager.Close()
}
