package catalog

import (
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"portq/broker_server/core/topic"
	"portq/common/redis"
)

const (
	redisTopicSetKey    = "portq:topics"
	redisTopicKeyPrefix = "portq:topic:"
	redisMaxRetries     = 3
)

// RedisTopicCatalog keeps one hash per topic plus a set of topic names.
type RedisTopicCatalog struct {
	client redis.IRedisClient
}

func NewRedisTopicCatalog(server, password string) (*RedisTopicCatalog, error) {
	client := redis.NewRedisClient(server, password, redisMaxRetries)
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisTopicCatalogWithClient(client), nil
}

func NewRedisTopicCatalogWithClient(client redis.IRedisClient) *RedisTopicCatalog {
	return &RedisTopicCatalog{client}
}

func topicKey(name string) string {
	return redisTopicKeyPrefix + name
}

func (c *RedisTopicCatalog) Clear() error {
	names, err := c.client.SMembers(redisTopicSetKey)
	if err != nil {
		return errors.Wrap(err, "list catalog topics")
	}
	keys := make([]string, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, topicKey(name))
	}
	keys = append(keys, redisTopicSetKey)
	return errors.Wrap(c.client.Delete(keys...), "clear catalog")
}

func (c *RedisTopicCatalog) Put(d topic.TopicDescriptor) error {
	err := c.client.HSet(topicKey(d.Name), map[string]interface{}{
		"capacity":  d.Capacity,
		"port":      d.Port,
		"createdAt": d.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return errors.Wrapf(err, "store topic %s", d.Name)
	}
	return errors.Wrapf(c.client.SAdd(redisTopicSetKey, d.Name), "index topic %s", d.Name)
}

func (c *RedisTopicCatalog) Get(name string) (*topic.TopicDescriptor, error) {
	fields, err := c.client.HGetAll(topicKey(name))
	if redis.IsNotFound(err) {
		return nil, topic.NewTopicNotFoundError(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load topic %s", name)
	}
	return descriptorFromHash(name, fields)
}

func (c *RedisTopicCatalog) List() ([]topic.TopicDescriptor, error) {
	names, err := c.client.SMembers(redisTopicSetKey)
	if err != nil {
		return nil, errors.Wrap(err, "list catalog topics")
	}
	sort.Strings(names)
	all := make([]topic.TopicDescriptor, 0, len(names))
	for _, name := range names {
		d, err := c.Get(name)
		if topic.IsTopicError(err, topic.TopicErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, *d)
	}
	return all, nil
}

func (c *RedisTopicCatalog) Close() error {
	return c.client.Close()
}

func descriptorFromHash(name string, fields map[string]string) (*topic.TopicDescriptor, error) {
	capacity, err := strconv.Atoi(fields["capacity"])
	if err != nil {
		return nil, errors.Wrapf(err, "topic %s has a corrupt capacity", name)
	}
	port, err := strconv.Atoi(fields["port"])
	if err != nil {
		return nil, errors.Wrapf(err, "topic %s has a corrupt port", name)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["createdAt"])
	if err != nil {
		return nil, errors.Wrapf(err, "topic %s has a corrupt creation time", name)
	}
	return &topic.TopicDescriptor{
		Name:      name,
		Capacity:  capacity,
		Port:      port,
		CreatedAt: createdAt,
	}, nil
}
