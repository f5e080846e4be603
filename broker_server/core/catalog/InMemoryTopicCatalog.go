package catalog

import (
	"sort"
	"sync"

	"portq/broker_server/core/topic"
)

type InMemoryTopicCatalog struct {
	topics map[string]topic.TopicDescriptor
	lock   *sync.RWMutex
}

func NewInMemoryTopicCatalog() *InMemoryTopicCatalog {
	return &InMemoryTopicCatalog{
		topics: make(map[string]topic.TopicDescriptor),
		lock:   new(sync.RWMutex),
	}
}

func (c *InMemoryTopicCatalog) withWrite(cb func()) {
	c.lock.Lock()
	defer c.lock.Unlock()
	cb()
}

func (c *InMemoryTopicCatalog) withRead(cb func()) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	cb()
}

func (c *InMemoryTopicCatalog) Clear() error {
	c.withWrite(func() {
		c.topics = make(map[string]topic.TopicDescriptor)
	})
	return nil
}

func (c *InMemoryTopicCatalog) Put(descriptor topic.TopicDescriptor) error {
	descriptor.Depth = 0
	c.withWrite(func() {
		c.topics[descriptor.Name] = descriptor
	})
	return nil
}

func (c *InMemoryTopicCatalog) Get(name string) (d *topic.TopicDescriptor, err error) {
	c.withRead(func() {
		if found, ok := c.topics[name]; ok {
			d = &found
		} else {
			err = topic.NewTopicNotFoundError(name)
		}
	})
	return
}

// List returns descriptors ordered by name.
func (c *InMemoryTopicCatalog) List() ([]topic.TopicDescriptor, error) {
	var all []topic.TopicDescriptor
	c.withRead(func() {
		all = make([]topic.TopicDescriptor, 0, len(c.topics))
		for _, d := range c.topics {
			all = append(all, d)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (c *InMemoryTopicCatalog) Close() error {
	return nil
}
