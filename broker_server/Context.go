package broker_server

import (
	"context"

	"portq/broker_server/config"
	"portq/broker_server/core/catalog"
	"portq/common/logger"
)

type IContext interface {
	Context() context.Context
	Config() config.ServerConfig
	Catalog() catalog.ITopicCatalog
	Logger() *logger.SimpleLogger
	IsStopping() bool
	Stop()
	Close() error
}

// Context is built once per process and injected into the registry. Its
// context is the shared stop flag: every worker pool derives from it.
type Context struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	config     config.ServerConfig
	catalog    catalog.ITopicCatalog
	logger     *logger.SimpleLogger
}

func NewContext(cfg config.ServerConfig, topicCatalog catalog.ITopicCatalog, l *logger.SimpleLogger) *Context {
	if topicCatalog == nil {
		topicCatalog = catalog.NewInMemoryTopicCatalog()
	}
	if l == nil {
		l = logger.NewConsole("[portq]", cfg.Verbose)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Context{
		ctx:        ctx,
		cancelFunc: cancel,
		config:     cfg,
		catalog:    topicCatalog,
		logger:     l,
	}
}

func (c *Context) Context() context.Context {
	return c.ctx
}

func (c *Context) Config() config.ServerConfig {
	return c.config
}

func (c *Context) Catalog() catalog.ITopicCatalog {
	return c.catalog
}

func (c *Context) Logger() *logger.SimpleLogger {
	return c.logger
}

func (c *Context) IsStopping() bool {
	return c.ctx.Err() != nil
}

// Stop raises the stop flag. Blocked accept loops still need a wake-up
// connection to observe it.
func (c *Context) Stop() {
	c.cancelFunc()
}

func (c *Context) Close() error {
	c.cancelFunc()
	return c.catalog.Close()
}
