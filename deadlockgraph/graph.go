// Package deadlockgraph builds a cross-resource wait-for graph over a
// registry.Registry and breaks any cycle it finds, the way
// deadlock_detector.go's DeadlockDetector and WaitForGraphAnalyzer
// detect and resolve deadlocks — except here the graph spans every
// lock.Lock a Registry is tracking, not a single lock manager's
// internal map.
package deadlockgraph

import (
	"fmt"
	"sync"
	"time"

	"gridlock/internal/telemetry"
	"gridlock/lock"
	"gridlock/registry"
)

// edge is one waiter-is-blocked-on-holder relationship, tagged with
// the resource key it was observed on so a cycle can be broken by
// cancelling the right Request.
type edge struct {
	Waiter any
	Holder any
	Key    string
}

// Scanner periodically walks a Registry's locks, builds a global
// wait-for graph, and cancels one waiter per cycle it finds with
// Deadlocked, matching the detect-then-resolve shape of
// DeadlockDetector.detectAndResolveDeadlocks.
type Scanner struct {
	registry *registry.Registry
	interval time.Duration
	log      *telemetry.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Scanner over reg, scanning every interval. logger
// may be nil, in which case scan events are discarded.
func New(reg *registry.Registry, interval time.Duration, logger *telemetry.Logger) *Scanner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = telemetry.New(telemetry.LevelError + 1)
	}
	return &Scanner{
		registry: reg,
		interval: interval,
		log:      logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic scan loop.
func (s *Scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("deadlock scanner is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.wg.Add(1)
	go s.scanLoop()
	return nil
}

// Stop halts the scan loop and waits for it to exit.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	s.running = false
	return nil
}

func (s *Scanner) scanLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ScanOnce()
		case <-s.stopChan:
			return
		}
	}
}

// edgeCollector is a lock.DeadlockChecker that never reports a
// deadlock itself; it exists only to observe every (waiter, holder)
// pair a single Lock's DeadlockCheck walk exposes.
type edgeCollector struct {
	key   string
	edges *[]edge
}

func (c edgeCollector) DeadlockDetected(waiter, holder any) bool {
	*c.edges = append(*c.edges, edge{Waiter: waiter, Holder: holder, Key: c.key})
	return false
}

// victimCanceler is a lock.DeadlockChecker that reports a deadlock for
// exactly one (waiter, holder) pair, the one a cycle search has already
// chosen to break.
type victimCanceler struct {
	waiter any
	holder any
}

func (c victimCanceler) DeadlockDetected(waiter, holder any) bool {
	return waiter == c.waiter && holder == c.holder
}

// ScanOnce runs one detect-and-resolve pass: it builds the current
// wait-for graph across every resource in the Registry, finds cycles
// with a three-color DFS, and cancels one Request per cycle found. It
// returns the number of cycles broken.
func (s *Scanner) ScanOnce() int {
	var edges []edge
	s.registry.ForEach(func(key string, l *lock.Lock) {
		l.DeadlockCheck(edgeCollector{key: key, edges: &edges})
	})

	if len(edges) == 0 {
		return 0
	}

	breaks := findCycleBreaks(edges)
	for _, b := range breaks {
		l := s.registry.Get(b.Key)
		l.DeadlockCheck(victimCanceler{waiter: b.Waiter, holder: b.Holder})
		s.log.Warn("deadlockgraph", "resolve", "deadlock broken", map[string]interface{}{
			"key":    b.Key,
			"waiter": fmt.Sprint(b.Waiter),
			"holder": fmt.Sprint(b.Holder),
		})
	}
	return len(breaks)
}

// findCycleBreaks runs a DFS over the owner graph implied by edges
// (three-color: unvisited / visiting / visited, exactly like
// WaitForGraphAnalyzer.FindAllCycles) and returns, for every cycle
// found, the single edge whose cancellation breaks it.
func findCycleBreaks(edges []edge) []edge {
	byWaiter := make(map[any][]edge)
	for _, e := range edges {
		byWaiter[e.Waiter] = append(byWaiter[e.Waiter], e)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[any]int)
	var breaks []edge

	var dfs func(owner any)
	dfs = func(owner any) {
		state[owner] = visiting
		for _, e := range byWaiter[owner] {
			switch state[e.Holder] {
			case unvisited:
				dfs(e.Holder)
			case visiting:
				breaks = append(breaks, e)
			case visited:
				// Already fully explored; no new cycle through here.
			}
		}
		state[owner] = visited
	}

	for owner := range byWaiter {
		if state[owner] == unvisited {
			dfs(owner)
		}
	}
	return breaks
}
