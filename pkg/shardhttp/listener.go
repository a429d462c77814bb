package shardhttp

import (
	"net"
	"sync/atomic"
)

// listenerLoop drives one listening socket's accept loop (spec.md §4.4).
type listenerLoop struct {
	server *Server
	ln     net.Listener

	acceptsInFlight atomic.Int32
	aborted         atomic.Bool
}

func newListenerLoop(s *Server, ln net.Listener) *listenerLoop {
	return &listenerLoop{server: s, ln: ln}
}

// abortAccept closes the listening socket, unblocking any in-progress
// Accept call with an error so the loop can observe stopping and exit.
func (l *listenerLoop) abortAccept() {
	l.aborted.Store(true)
	_ = l.ln.Close()
}

// run accepts connections until the listener is aborted or Accept fails
// permanently. Each accepted connection is launched on its own goroutine
// pair and the loop immediately tail-recurses into the next accept.
func (l *listenerLoop) run() {
	for {
		l.acceptsInFlight.Add(1)
		conn, err := l.ln.Accept()
		l.acceptsInFlight.Add(-1)

		if err != nil {
			if l.aborted.Load() {
				l.server.maybeIdle()
				return
			}
			l.server.logger.Warn("accept error", "error", err)
			return
		}

		s := l.server
		if s.isStopping() {
			_ = conn.Close()
			s.maybeIdle()
			continue
		}

		id := s.newConnectionID()
		c := newConnection(id, conn, s.queueCapacity, s, s.newWSConn)
		s.addConnection(c)
		go c.process()
	}
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}
