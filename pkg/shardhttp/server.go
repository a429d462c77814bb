package shardhttp

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shardserve/shardhttp/internal/reuseport"
)

// dateLayout is the HTTP-date format spec.md §6 specifies.
const dateLayout = "02 Jan 2006 15:04:05 GMT"

// Server is a shard-local acceptor: a set of listeners, a live connection
// registry, request counters, a once-per-second Date cache, and the
// routes table those connections dispatch through.
type Server struct {
	name          string
	routes        Routes
	queueCapacity int
	newWSConn     wsConnFactory
	logger        *slog.Logger
	metrics       *metrics

	mu          sync.Mutex
	listeners   []*listenerLoop
	connections map[uint64]*Connection
	stopping    bool

	nextConnID atomic.Uint64
	date       atomic.Value // string

	stopTicker context.CancelFunc
	idleCh     chan struct{}
	idleOnce   sync.Once
}

// ServerOptions configures a new Server.
type ServerOptions struct {
	Name          string
	QueueCapacity int
	Logger        *slog.Logger
	Registry      prometheus.Registerer
	// NewWSConn wraps an upgraded socket as a WSConn, reusing the
	// connection's existing buffered reader/writer.
	NewWSConn func(conn net.Conn, br *bufio.Reader, bw *bufio.Writer) WSConn
}

// NewServer constructs a Server. Routes must be set with SetRoutes before
// the first Listen call; per spec.md §4.5/§4.6 routes are configured once
// and read concurrently thereafter without further locking.
func NewServer(opts ServerOptions) *Server {
	if opts.Name == "" {
		opts.Name = "shardhttp"
	}
	if opts.QueueCapacity < 1 {
		opts.QueueCapacity = replyQueueCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.DefaultRegisterer
	}
	if opts.NewWSConn == nil {
		panic("shardhttp: ServerOptions.NewWSConn is required")
	}

	s := &Server{
		name:          opts.Name,
		queueCapacity: opts.QueueCapacity,
		newWSConn:     opts.NewWSConn,
		logger:        opts.Logger.With("component", "server", "shard", opts.Name),
		metrics:       newMetrics(opts.Registry, opts.Name),
		connections:   make(map[uint64]*Connection),
		idleCh:        make(chan struct{}),
	}
	s.date.Store(time.Now().UTC().Format(dateLayout))

	ctx, cancel := context.WithCancel(context.Background())
	s.stopTicker = cancel
	go s.refreshDateLoop(ctx)

	return s
}

// SetRoutes installs the routing table. Must be called before Listen.
func (s *Server) SetRoutes(routes Routes) {
	s.routes = routes
}

func (s *Server) refreshDateLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.date.Store(time.Now().UTC().Format(dateLayout))
		}
	}
}

func (s *Server) dateHeader() string {
	return s.date.Load().(string)
}

// Listen opens addr with SO_REUSEPORT set (so a Controller with several
// shards can all bind the same address and let the kernel distribute
// accepts between them, rather than racing for one shared listener) and
// starts its accept loop.
func (s *Server) Listen(addr string) error {
	lc := net.ListenConfig{
		Control: func(network, address string, rawConn syscall.RawConn) error {
			return reuseport.SetReusePort(rawConn)
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve registers an already-opened listener and starts its accept loop
// in the background, returning immediately once registered — mirroring
// listen()'s "resolves once bound, not once the loop ends" contract
// (spec.md §6's listen banner is printed right after this returns).
// Exposed separately from Listen so tests can hand in a net.Listener
// bound to an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("shardhttp: server is stopping")
	}
	loop := newListenerLoop(s, ln)
	s.listeners = append(s.listeners, loop)
	s.mu.Unlock()

	go loop.run()
	return nil
}

func (s *Server) addConnection(c *Connection) {
	s.mu.Lock()
	s.connections[c.id] = c
	s.mu.Unlock()
	s.metrics.totalConnections.Inc()
	s.metrics.currentConnections.Inc()
}

func (s *Server) removeConnection(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c.id)
	remaining := len(s.connections)
	stopping := s.stopping
	s.mu.Unlock()
	s.metrics.currentConnections.Dec()
	if stopping && remaining == 0 {
		s.maybeIdle()
	}
}

func (s *Server) newConnectionID() uint64 {
	return s.nextConnID.Add(1)
}

// Stop marks the server stopping, aborts every listener's accept loop,
// shuts down every live connection's transport, and blocks until the
// connection set has fully drained.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	listeners := append([]*listenerLoop(nil), s.listeners...)
	conns := make([]*Connection, 0, len(s.connections))
	for _, c := range s.connections {
		conns = append(conns, c)
	}
	noConnsYet := len(conns) == 0
	s.mu.Unlock()

	for _, l := range listeners {
		l.abortAccept()
	}
	for _, c := range conns {
		shutdownConn(c.conn)
	}
	s.stopTicker()

	if noConnsYet {
		s.maybeIdle()
	}
	<-s.idleCh
}

// shutdownConn shuts down both directions of conn's transport (spec.md
// §4.5's "shutdown both transport directions") without waiting for the
// connection's own fibers to notice; they observe the resulting I/O
// errors and terminate through their normal error paths. TCP connections
// get a true half-close; anything else falls back to a full close.
func shutdownConn(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseRead()
		_ = tcp.CloseWrite()
		return
	}
	_ = conn.Close()
}

func (s *Server) maybeIdle() {
	s.mu.Lock()
	stopping := s.stopping
	accepting := false
	for _, l := range s.listeners {
		if l.acceptsInFlight.Load() > 0 {
			accepting = true
			break
		}
	}
	idle := stopping && !accepting && len(s.connections) == 0
	s.mu.Unlock()
	if idle {
		s.idleOnce.Do(func() { close(s.idleCh) })
	}
}
