package redis

import (
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const (
	ErrNotFound = 404

	ErrNotFoundStr = "not found"
)

type RedisClientErr struct {
	code int
	msg  string
}

func (e *RedisClientErr) Code() int {
	return e.code
}

func (e *RedisClientErr) Error() string {
	return e.msg
}

func NewRedisClientErr(code int, msg string) *RedisClientErr {
	return &RedisClientErr{
		code: code,
		msg:  msg,
	}
}

func NewRedisNotFoundErr() *RedisClientErr {
	return NewRedisClientErr(ErrNotFound, ErrNotFoundStr)
}

func IsNotFound(err error) bool {
	e, ok := errors.Cause(err).(*RedisClientErr)
	return ok && e.code == ErrNotFound
}

type IRedisClient interface {
	Ping() error
	HGetAll(key string) (map[string]string, error)
	HSet(key string, m map[string]interface{}) error
	SAdd(key string, members ...interface{}) error
	SMembers(key string) ([]string, error)
	Delete(keys ...string) error
	Close() error
}

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, pass string, maxRetries int) *RedisClient {
	opt := &redis.Options{
		Addr: addr,
	}
	if pass != "" {
		opt.Password = pass
	}
	if maxRetries > 0 && maxRetries < 5 {
		opt.MaxRetries = maxRetries
	}
	return &RedisClient{
		client: redis.NewClient(opt),
	}
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}

func (c *RedisClient) Ping() error {
	return errors.Wrap(c.client.Ping().Err(), "redis ping")
}

// HGetAll reports not found for a missing or empty hash.
func (c *RedisClient) HGetAll(key string) (map[string]string, error) {
	m, err := c.client.HGetAll(key).Result()
	if err == redis.Nil || (err == nil && len(m) == 0) {
		return nil, NewRedisNotFoundErr()
	}
	return m, err
}

func (c *RedisClient) HSet(key string, m map[string]interface{}) error {
	return c.client.HMSet(key, m).Err()
}

func (c *RedisClient) SAdd(key string, members ...interface{}) error {
	return c.client.SAdd(key, members...).Err()
}

func (c *RedisClient) SMembers(key string) ([]string, error) {
	return c.client.SMembers(key).Result()
}

func (c *RedisClient) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(keys...).Err()
}
