package config

import (
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultHost                    = "127.0.0.1"
	DefaultControlPort             = 9999
	DefaultMinTopicPort            = 10000
	DefaultMaxTopicPort            = 20000
	DefaultMaxTopicCapacity        = 1 << 16
	defaultControlPoolSize         = 256
	defaultTopicPoolSize           = 256
	defaultControlPoolWorkerFactor = 4
	defaultTopicPoolWorkerFactor   = 16
	defaultStopDialRetryCount      = 2

	// queue slots are allocated up front, so the limit itself is bounded
	CeilingMaxTopicCapacity = 1 << 24

	CatalogDriverMemory = "memory"
	CatalogDriverRedis  = "redis"
	CatalogDriverMySql  = "mysql"
	CatalogDriverMongo  = "mongo"

	envPrefix      = "PORTQ_"
	defaultEnvFile = ".env"
)

type ServerConfig struct {
	CommonConfig `json:"commonConfig"`
	Catalog      CatalogConfig `json:"catalog"`
}

type CommonConfig struct {
	Host                    string `json:"host"`
	ControlPort             int    `json:"controlPort"`
	MinTopicPort            int    `json:"minTopicPort"`
	MaxTopicPort            int    `json:"maxTopicPort"`
	MaxTopicCapacity        int    `json:"maxTopicCapacity"`
	ControlPoolSize         int    `json:"controlPoolSize"`
	TopicPoolSize           int    `json:"topicPoolSize"`
	ControlPoolWorkerFactor int    `json:"controlPoolWorkerFactor"`
	TopicPoolWorkerFactor   int    `json:"topicPoolWorkerFactor"`
	StopDialRetryCount      int    `json:"stopDialRetryCount"`
	Verbose                 bool   `json:"verbose"`
}

type CatalogConfig struct {
	Driver   string `json:"driver"`
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	Db       string `json:"db"`
}

func Default() ServerConfig {
	return ServerConfig{
		CommonConfig: CommonConfig{
			Host:                    DefaultHost,
			ControlPort:             DefaultControlPort,
			MinTopicPort:            DefaultMinTopicPort,
			MaxTopicPort:            DefaultMaxTopicPort,
			MaxTopicCapacity:        DefaultMaxTopicCapacity,
			ControlPoolSize:         defaultControlPoolSize,
			TopicPoolSize:           defaultTopicPoolSize,
			ControlPoolWorkerFactor: defaultControlPoolWorkerFactor,
			TopicPoolWorkerFactor:   defaultTopicPoolWorkerFactor,
			StopDialRetryCount:      defaultStopDialRetryCount,
		},
		Catalog: CatalogConfig{
			Driver: CatalogDriverMemory,
		},
	}
}

// Load starts from the defaults, applies the json file at path when one is
// given, then PORTQ_* variables from the environment and the env files. With
// no env files, .env in the working directory is used if present.
func Load(path string, envFiles ...string) (ServerConfig, error) {
	config := Default()
	if err := loadEnvFiles(envFiles); err != nil {
		return config, err
	}
	if path != "" {
		stream, err := os.ReadFile(path)
		if err != nil {
			return config, errors.Wrapf(err, "unable to read config file %s", path)
		}
		if config, err = Parse(stream); err != nil {
			return config, errors.Wrapf(err, "unable to parse config file %s", path)
		}
	}
	if err := config.applyEnv(os.Getenv); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// Parse decodes a json config on top of the defaults.
func Parse(stream []byte) (ServerConfig, error) {
	config := Default()
	err := json.Unmarshal(stream, &config)
	return config, err
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		files = []string{defaultEnvFile}
	}
	return errors.Wrap(godotenv.Load(files...), "unable to load env files")
}

func (c *ServerConfig) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"HOST":             &c.Host,
		"CATALOG_DRIVER":   &c.Catalog.Driver,
		"CATALOG_SERVER":   &c.Catalog.Server,
		"CATALOG_USERNAME": &c.Catalog.Username,
		"CATALOG_PASSWORD": &c.Catalog.Password,
		"CATALOG_DB":       &c.Catalog.Db,
	}
	for key, field := range strs {
		if v := getenv(envPrefix + key); v != "" {
			*field = v
		}
	}
	ints := map[string]*int{
		"CONTROL_PORT":          &c.ControlPort,
		"MIN_TOPIC_PORT":        &c.MinTopicPort,
		"MAX_TOPIC_PORT":        &c.MaxTopicPort,
		"MAX_TOPIC_CAPACITY":    &c.MaxTopicCapacity,
		"CONTROL_POOL_SIZE":     &c.ControlPoolSize,
		"TOPIC_POOL_SIZE":       &c.TopicPoolSize,
		"STOP_DIAL_RETRY_COUNT": &c.StopDialRetryCount,
		"TOPIC_WORKER_FACTOR":   &c.TopicPoolWorkerFactor,
		"CONTROL_WORKER_FACTOR": &c.ControlPoolWorkerFactor,
	}
	for key, field := range ints {
		v := getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s%s", envPrefix, key)
		}
		*field = n
	}
	if v := getenv(envPrefix + "VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sVERBOSE", envPrefix)
		}
		c.Verbose = verbose
	}
	return nil
}

// Validate checks that the broker stays on loopback and that the control
// port can never be handed out as a topic port.
func (c ServerConfig) Validate() error {
	if !isLoopback(c.Host) {
		return errors.Errorf("host %s is not a loopback address", c.Host)
	}
	if c.MinTopicPort < 1 || c.MaxTopicPort > 65536 || c.MinTopicPort >= c.MaxTopicPort {
		return errors.Errorf("invalid topic port range [%d, %d)", c.MinTopicPort, c.MaxTopicPort)
	}
	if c.ControlPort < 1 || c.ControlPort > 65535 {
		return errors.Errorf("invalid control port %d", c.ControlPort)
	}
	if c.ControlPort >= c.MinTopicPort && c.ControlPort < c.MaxTopicPort {
		return errors.Errorf("control port %d lies inside the topic port range [%d, %d)", c.ControlPort, c.MinTopicPort, c.MaxTopicPort)
	}
	if c.MaxTopicCapacity < 1 || c.MaxTopicCapacity > CeilingMaxTopicCapacity {
		return errors.Errorf("max topic capacity %d outside [1, %d]", c.MaxTopicCapacity, CeilingMaxTopicCapacity)
	}
	switch strings.ToLower(c.Catalog.Driver) {
	case CatalogDriverMemory, CatalogDriverRedis, CatalogDriverMySql, CatalogDriverMongo:
	default:
		return errors.Errorf("unknown catalog driver %s", c.Catalog.Driver)
	}
	return nil
}

func (c ServerConfig) ControlWorkerSize() int {
	return runtime.NumCPU() * c.ControlPoolWorkerFactor
}

func (c ServerConfig) TopicWorkerSize() int {
	return runtime.NumCPU() * c.TopicPoolWorkerFactor
}

// String renders the config with the catalog password masked.
func (c ServerConfig) String() string {
	if c.Catalog.Password != "" {
		c.Catalog.Password = "******"
	}
	marshalled, err := json.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(marshalled)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
