// Package server implements the orchestrator: owns the listening
// socket, fans reindex work out to the pool, and accepts client
// connections for the dispatcher.
package server

import (
	"context"
	"io/fs"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/searchd/internal/config"
	"github.com/standardbeagle/searchd/internal/dispatcher"
	lcierrors "github.com/standardbeagle/searchd/internal/errors"
	"github.com/standardbeagle/searchd/internal/index"
	"github.com/standardbeagle/searchd/internal/logging"
	"github.com/standardbeagle/searchd/internal/metrics"
	"github.com/standardbeagle/searchd/internal/pool"
	"github.com/standardbeagle/searchd/internal/store"
	"github.com/standardbeagle/searchd/internal/types"
)

var log = logging.For("server")

// Server ties the listener, pool, store, and index together and drives
// the accept/reindex loop.
type Server struct {
	cfg     *config.Config
	matcher *config.Matcher
	store   *store.ContentStore
	index   *index.InvertedIndex
	pool    *pool.Pool
	disp    *dispatcher.Dispatcher

	listener net.Listener
	running  atomic.Bool

	lastReindex      time.Time
	reindexInFlight  atomic.Int32
	handlesMu        sync.Mutex
	handles          []handleWaiter
	watcher          *fsnotify.Watcher
	reindexRequested atomic.Bool
	stopReindex      chan struct{}
	stopGauges       context.CancelFunc
}

// handleWaiter lets the orchestrator wait on heterogeneous Handle[R]
// values at shutdown without a generic slice type.
type handleWaiter interface {
	Wait() error
	Done() <-chan struct{}
}

type waitAdapter[R any] struct{ h *pool.Handle[R] }

func (w waitAdapter[R]) Wait() error {
	_, err := w.h.Wait()
	return err
}

func (w waitAdapter[R]) Done() <-chan struct{} { return w.h.Done() }

// New wires together a pool, content store, and index for root,
// according to cfg.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:         cfg,
		matcher:     config.NewMatcher(cfg),
		store:       store.New(4096),
		index:       index.New(),
		pool:        pool.Create(cfg.Pool.Workers),
		stopReindex: make(chan struct{}),
	}
	s.disp = dispatcher.New(s.index, s.store)

	if cfg.Index.WatchForCreates {
		if w, err := fsnotify.NewWatcher(); err == nil {
			s.watcher = w
			if err := w.Add(cfg.Project.Root); err != nil {
				log.Warn("fsnotify watch failed on %s: %v", cfg.Project.Root, err)
				w.Close()
				s.watcher = nil
			}
		} else {
			log.Warn("fsnotify unavailable: %v", err)
		}
	}

	return s, nil
}

// Start binds the listen socket, starts the pool, and runs the main
// accept/reindex loop until Stop is called. It blocks until the loop
// exits.
func (s *Server) Start() error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Project.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return lcierrors.NewListenError(addr, err)
	}
	s.listener = ln

	if err := s.pool.Start(); err != nil {
		ln.Close()
		return err
	}

	s.running.Store(true)
	log.Info("server listening on %s, root=%s", addr, s.cfg.Project.Root)

	metricsCtx, cancelMetrics := context.WithCancel(context.Background())
	s.stopGauges = cancelMetrics
	metrics.PollGauges(metricsCtx, s.pool, time.Second)

	if s.watcher != nil {
		go s.watchLoop()
	}

	s.acceptLoop()
	return nil
}

// acceptLoop accepts connections and fans reindex rounds out on a
// ticker, until the listener is closed by Stop. Go's net.Listener.Accept
// blocks natively and returns an error once the listener is closed,
// which this loop treats as the shutdown signal instead of spinning on
// a non-blocking socket.
func (s *Server) acceptLoop() {
	checkInterval := time.Duration(s.cfg.Index.IntervalMs) * time.Millisecond / 5
	if checkInterval < 50*time.Millisecond {
		checkInterval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	reindexDone := make(chan struct{})

	go func() {
		defer close(reindexDone)
		for {
			select {
			case <-ticker.C:
				if !s.running.Load() {
					return
				}
				s.maybeReindex()
			case <-s.stopReindex:
				return
			}
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				close(s.stopReindex)
				<-reindexDone
				return
			}
			log.Error("accept failed: %v", err)
			continue
		}

		s.gcHandles()
		h, err := pool.Submit(s.pool, types.PriorityHandleClient, func() (struct{}, error) {
			s.disp.Serve(conn)
			return struct{}{}, nil
		})
		if err != nil {
			log.Error("failed to submit client handler: %v", err)
			conn.Close()
			continue
		}
		s.trackHandle(waitAdapter[struct{}]{h})
	}
}

func (s *Server) watchLoop() {
	for event := range s.watcher.Events {
		if event.Op&fsnotify.Create != 0 {
			s.reindexRequested.Store(true)
		}
	}
}

// maybeReindex schedules a reindex round if no reindex tasks are
// outstanding and either the interval has elapsed or the fsnotify watcher
// has seen a Create event since the last check.
func (s *Server) maybeReindex() {
	if s.reindexInFlight.Load() > 0 {
		return
	}
	elapsed := time.Since(s.lastReindex) >= time.Duration(s.cfg.Index.IntervalMs)*time.Millisecond
	nudged := s.reindexRequested.CompareAndSwap(true, false)
	if !elapsed && !nudged {
		return
	}
	s.lastReindex = time.Now()
	s.fanOutReindex()
}

// fanOutReindex enumerates the root, keeps only not-yet-loaded regular
// files that pass the include/exclude matcher and are no larger than
// Index.MaxFileSize, splits them into
// W = max(IdleCount, 1) slices, and submits one UPDATE_INDEX task per
// non-empty slice.
func (s *Server) fanOutReindex() {
	pending := s.discoverPending()
	if len(pending) == 0 {
		return
	}

	w := s.pool.IdleCount()
	slices := splitIntoSlices(pending, w)

	for _, slice := range slices {
		if len(slice) == 0 {
			continue
		}
		slice := slice
		s.reindexInFlight.Add(1)
		h, err := pool.Submit(s.pool, types.PriorityUpdateIndex, func() (struct{}, error) {
			defer s.reindexInFlight.Add(-1)
			for _, path := range slice {
				id := s.store.Load(path)
				if id == types.SentinelFileID {
					continue
				}
				s.index.Add(id, s.store.Content(id))
			}
			return struct{}{}, nil
		})
		if err != nil {
			s.reindexInFlight.Add(-1)
			log.Error("failed to submit reindex task: %v", err)
			continue
		}
		s.trackHandle(waitAdapter[struct{}]{h})
	}

	metrics.ReindexFilesDiscovered.Add(float64(len(pending)))
	log.Debug("reindex round: %d files across %d slices", len(pending), len(slices))
}

func (s *Server) discoverPending() []string {
	var pending []string
	err := filepath.WalkDir(s.cfg.Project.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > s.cfg.Index.MaxFileSize {
			return nil
		}
		if !s.matcher.Allowed(path) {
			return nil
		}
		if s.store.IsLoaded(path) {
			return nil
		}
		pending = append(pending, path)
		return nil
	})
	if err != nil {
		log.Error("reindex walk failed: %v", err)
	}
	return pending
}

// splitIntoSlices divides paths into w slices: w-1 slices of size
// floor(len/w), with the remainder absorbed by the final slice.
func splitIntoSlices(paths []string, w int) [][]string {
	if w < 1 {
		w = 1
	}
	n := len(paths)
	base := n / w
	slices := make([][]string, 0, w)
	idx := 0
	for i := 0; i < w-1 && idx < n; i++ {
		end := idx + base
		slices = append(slices, paths[idx:end])
		idx = end
	}
	slices = append(slices, paths[idx:])
	return slices
}

func (s *Server) trackHandle(h handleWaiter) {
	s.handlesMu.Lock()
	s.handles = append(s.handles, h)
	s.handlesMu.Unlock()
}

// gcHandles drops handles whose task has already completed, bounding
// the tracking slice's growth during long-running sessions. Shutdown
// still waits on every handle still tracked.
func (s *Server) gcHandles() {
	s.handlesMu.Lock()
	defer s.handlesMu.Unlock()
	live := s.handles[:0]
	for _, h := range s.handles {
		select {
		case <-h.Done():
			// completed; drop
		default:
			live = append(live, h)
		}
	}
	s.handles = live
}

// Stop flips running to false, shuts the pool down (dropping queued
// tasks, joining workers that finish their current task), waits on all
// recorded task handles, and closes the listen socket.
func (s *Server) Stop() error {
	s.running.Store(false)
	if s.stopGauges != nil {
		s.stopGauges()
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.pool.Shutdown()

	s.handlesMu.Lock()
	handles := s.handles
	s.handles = nil
	s.handlesMu.Unlock()

	var g errgroup.Group
	for _, h := range handles {
		h := h
		g.Go(func() error { return h.Wait() })
	}
	return g.Wait()
}
