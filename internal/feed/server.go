package feed

import (
	"bufio"
	"errors"
	"log"
	"net"
	"sync"
)

// Server accepts raw TCP listeners for the activity feed. Each client
// receives line-delimited JSON events as they are recorded.
type Server struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	log.Printf("[feed] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.Printf("[feed] client connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Printf("[feed] client disconnected: %s", c.RemoteAddr())
			}()

			// Keep the connection alive; if client sends anything, just consume.
			sc := bufio.NewScanner(c)
			for sc.Scan() {
				// ignore incoming lines
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
