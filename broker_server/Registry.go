package broker_server

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"portq/broker_common/protocol"
	"portq/broker_server/core/topic"
	"portq/common/async"
	"portq/common/data_structures"
	"portq/common/logger"
	"portq/tcp"
)

type IRegistry interface {
	Start() error
	Serve()
	ResolveTopic(name string, capacity int) (int, error)
	Topic(name string) (topic.ITopicServer, bool)
	DescribeTopics() ([]topic.TopicDescriptor, error)
	ControlPort() int
	Ports() []int
	Stop()
	Wait()
	Done() <-chan bool
}

// Registry owns the control endpoint and every topic server. The topic map
// and the port allocation record change together under one lock.
type Registry struct {
	ctx      IContext
	lock     *sync.Mutex
	topics   map[string]*topic.TopicServer
	ports    data_structures.ISet[int]
	random   *rand.Rand
	control  *tcp.TCPServer
	started  bool
	stopOnce sync.Once
	stopped  *async.Barrier
	logger   *logger.SimpleLogger
}

func NewRegistry(ctx IContext) *Registry {
	cfg := ctx.Config()
	r := &Registry{
		ctx:     ctx,
		lock:    new(sync.Mutex),
		topics:  make(map[string]*topic.TopicServer),
		ports:   data_structures.NewSet[int](),
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
		stopped: async.NewBarrier(),
		logger:  ctx.Logger().WithPrefix("[Registry]"),
	}
	pool := async.NewAsyncPoolWithContext(ctx.Context(), "control", cfg.ControlPoolSize, cfg.ControlWorkerSize(), r.logger)
	r.control = tcp.NewTCPServer("control", cfg.Host, cfg.ControlPort, pool, ctx.IsStopping, r.handleControl, r.logger)
	return r
}

func (r *Registry) withLock(cb func()) {
	r.lock.Lock()
	defer r.lock.Unlock()
	cb()
}

// Start clears the catalog and binds the control port. Failing to bind is
// fatal to the broker.
func (r *Registry) Start() error {
	if err := r.ctx.Catalog().Clear(); err != nil {
		r.logger.Warnf("unable to clear topic catalog: %s", err.Error())
	}
	if err := r.control.Listen(); err != nil {
		return err
	}
	r.withLock(func() {
		r.ports.Add(r.control.Port())
		r.started = true
	})
	r.logger.Printf("control endpoint bound to port %d", r.control.Port())
	return nil
}

// Serve runs the control accept loop until Stop. It returns at once when
// Stop came first.
func (r *Registry) Serve() {
	r.control.Serve()
}

func (r *Registry) ControlPort() int {
	return r.control.Port()
}

// ResolveTopic returns the port of the named topic, creating the topic with
// the given capacity when it does not exist yet. The capacity of an
// existing topic is never changed.
func (r *Registry) ResolveTopic(name string, capacity int) (port int, err error) {
	var created *topic.TopicServer
	r.withLock(func() {
		if r.ctx.IsStopping() {
			err = topic.NewRegistryStoppedError(name)
			return
		}
		if existing, ok := r.topics[name]; ok {
			port = existing.Port()
			return
		}
		created, err = r.createTopic(name, capacity)
		if err == nil {
			port = created.Port()
		}
	})
	if err != nil {
		r.logger.Errorf("unable to resolve topic %s: %s", name, err.Error())
		return -1, err
	}
	if created != nil {
		r.logger.Printf("topic %s created on port %d with capacity %d", name, port, capacity)
		if err := r.ctx.Catalog().Put(created.Descriptor()); err != nil {
			r.logger.Warnf("unable to record topic %s in catalog: %s", name, err.Error())
		}
	}
	return port, nil
}

// createTopic must run under the registry lock.
func (r *Registry) createTopic(name string, capacity int) (*topic.TopicServer, error) {
	if name == protocol.StopSentinel {
		return nil, topic.NewReservedNameError(name)
	}
	cfg := r.ctx.Config()
	if capacity < 1 || capacity > cfg.MaxTopicCapacity {
		return nil, topic.NewInvalidCapacityError(name, capacity)
	}
	port, err := r.allocatePort()
	if err != nil {
		return nil, err
	}
	server, err := topic.NewTopicServer(r.ctx.Context(), name, capacity, topic.TopicServerOptions{
		Host:         cfg.Host,
		Port:         port,
		PoolSize:     cfg.TopicPoolSize,
		WorkerSize:   cfg.TopicWorkerSize(),
		ParentLogger: r.ctx.Logger(),
	})
	if err == nil {
		err = server.Listen()
	}
	if err != nil {
		r.ports.Delete(port)
		return nil, err
	}
	r.topics[name] = server
	go server.Serve()
	return server, nil
}

// allocatePort samples the topic range until it finds a port the process
// does not own yet, and reserves it. Must run under the registry lock.
func (r *Registry) allocatePort() (int, error) {
	cfg := r.ctx.Config()
	size := cfg.MaxTopicPort - cfg.MinTopicPort
	if len(r.topics) >= size {
		return -1, topic.NewPortsExhaustedError(cfg.MinTopicPort, cfg.MaxTopicPort)
	}
	for {
		port := cfg.MinTopicPort + r.random.Intn(size)
		if r.ports.Add(port) {
			return port, nil
		}
	}
}

func (r *Registry) handleControl(ctx context.Context, conn *tcp.TCPConnection) {
	request, err := protocol.ReadControlRequest(conn)
	if err != nil {
		r.logger.Errorf("%s dropped: %s", conn, err.Error())
		return
	}
	if request.Stop {
		r.logger.Debugf("%s sent stop", conn)
		return
	}
	port, err := r.ResolveTopic(request.Topic, request.Capacity)
	if err != nil {
		// closing without a reply is how a failed resolution is reported
		return
	}
	logger.LogError(r.logger, "ReplyPort", protocol.ReplyPort(conn, port))
}

func (r *Registry) Topic(name string) (topic.ITopicServer, bool) {
	var server *topic.TopicServer
	r.withLock(func() {
		server = r.topics[name]
	})
	if server == nil {
		return nil, false
	}
	return server, true
}

func (r *Registry) liveTopics() []*topic.TopicServer {
	var servers []*topic.TopicServer
	r.withLock(func() {
		servers = make([]*topic.TopicServer, 0, len(r.topics))
		for _, s := range r.topics {
			servers = append(servers, s)
		}
	})
	return servers
}

// DescribeTopics lists the catalog with live queue depths. When the catalog
// can not be read the live topics are described directly.
func (r *Registry) DescribeTopics() ([]topic.TopicDescriptor, error) {
	live := make(map[string]*topic.TopicServer)
	for _, s := range r.liveTopics() {
		live[s.Name()] = s
	}
	descriptors, err := r.ctx.Catalog().List()
	if err != nil {
		r.logger.Warnf("unable to read topic catalog, describing live topics: %s", err.Error())
		descriptors = make([]topic.TopicDescriptor, 0, len(live))
		for _, s := range live {
			descriptors = append(descriptors, s.Descriptor())
		}
		sort.Slice(descriptors, func(i, j int) bool {
			return descriptors[i].Name < descriptors[j].Name
		})
		return descriptors, nil
	}
	for i := range descriptors {
		if s, ok := live[descriptors[i].Name]; ok {
			descriptors[i].Depth = s.Len()
		}
	}
	return descriptors, nil
}

// Ports snapshots every port owned by the process, control port included.
func (r *Registry) Ports() []int {
	var ports []int
	r.withLock(func() {
		ports = r.ports.GetAll()
	})
	sort.Ints(ports)
	return ports
}

// Stop raises the stop flag and wakes every accept loop by sending the stop
// sentinel to each owned port. In-flight exchanges are cancelled, not
// awaited. Calling Stop more than once has no further effect.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Printf("stopping broker")
		r.ctx.Stop()
		cfg := r.ctx.Config()
		ports := r.Ports()
		for _, port := range ports {
			err := tcp.Exchange(cfg.Host, port, cfg.StopDialRetryCount, func(conn *tcp.TCPConnection) error {
				return protocol.SendStop(conn)
			})
			if err != nil {
				r.logger.Warnf("unable to wake port %d: %s", port, err.Error())
			}
		}
		go func() {
			r.Wait()
			r.logger.Printf("all %d endpoints stopped", len(ports))
			r.stopped.Open()
		}()
	})
}

// Wait blocks until the control endpoint and every topic server have
// stopped accepting. A started registry must also be served.
func (r *Registry) Wait() {
	var started bool
	r.withLock(func() {
		started = r.started
	})
	if started {
		r.control.Wait()
	}
	for _, s := range r.liveTopics() {
		s.Wait()
	}
}

// Done is closed once a stop has completed.
func (r *Registry) Done() <-chan bool {
	return r.stopped.Done()
}
