package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const instanceDialTimeout = 500 * time.Millisecond

// errInstanceRunning is returned by ListenInstance when another viewer owns the socket
var errInstanceRunning = errors.New("another instance is running")

// openRequest is the one-line JSON message a second invocation sends
type openRequest struct {
	Open string `json:"open"`
}

// InstanceServer accepts open requests from later invocations and hands the paths
// to the UI loop
type InstanceServer struct {
	listener net.Listener
	path     string
	requests chan string
	logger   *zap.Logger
	wg       sync.WaitGroup
	once     sync.Once
}

// instanceSocketPath returns the per-user socket location
func instanceSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("miv-%d.sock", os.Getuid()))
}

// ListenInstance claims the socket at path. A socket left behind by a crashed
// instance is removed and reclaimed.
func ListenInstance(path string, logger *zap.Logger) (*InstanceServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if conn, err := net.DialTimeout("unix", path, instanceDialTimeout); err == nil {
		conn.Close()
		return nil, errInstanceRunning
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}

	s := &InstanceServer{
		listener: ln,
		path:     path,
		requests: make(chan string, 4),
		logger:   logger,
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Requests delivers paths sent by other invocations
func (s *InstanceServer) Requests() <-chan string {
	return s.requests
}

func (s *InstanceServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("instance accept failed", zap.Error(err))
			continue
		}
		s.handle(conn)
	}
}

func (s *InstanceServer) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		s.logger.Debug("instance request read failed", zap.Error(err))
		return
	}

	var req openRequest
	if err := json.Unmarshal(line, &req); err != nil || req.Open == "" {
		s.logger.Debug("malformed instance request", zap.ByteString("line", line))
		return
	}

	select {
	case s.requests <- req.Open:
		s.logger.Debug("relayed open request", zap.String("path", req.Open))
	default:
		s.logger.Warn("open request dropped, viewer busy", zap.String("path", req.Open))
	}
}

// Close stops accepting and removes the socket file
func (s *InstanceServer) Close() error {
	var err error
	s.once.Do(func() {
		err = s.listener.Close()
		s.wg.Wait()
		os.Remove(s.path)
	})
	return err
}

// SendToInstance asks the running instance at socketPath to open file
func SendToInstance(socketPath, file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("unix", socketPath, instanceDialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	data, err := json.Marshal(openRequest{Open: abs})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write(append(data, '\n'))
	return err
}
