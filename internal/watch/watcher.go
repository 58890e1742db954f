// Package watch runs the foreground watcher: it observes the plan file,
// recomputes warnings after each edit settles, and surfaces new high-severity
// warnings as desktop notifications.
package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/mkurosawa/studyflow/internal/events"
	"github.com/mkurosawa/studyflow/internal/lock"
	"github.com/mkurosawa/studyflow/internal/model"
	"github.com/mkurosawa/studyflow/internal/notify"
	"github.com/mkurosawa/studyflow/internal/schedule"
	"github.com/mkurosawa/studyflow/internal/store"
	"github.com/mkurosawa/studyflow/internal/warn"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Watcher is the long-running watch process for one plan directory.
type Watcher struct {
	store    *store.Store
	cfg      model.Config
	opts     schedule.Options
	engine   *warn.Engine
	bus      *events.Bus
	logLevel LogLevel
	logger   *log.Logger
	logFile  io.Closer

	fileLock *lock.FileLock
	watcher  *fsnotify.Watcher
	group    singleflight.Group

	// Injectable for tests.
	notifyFn func(title, message string)
	nowFn    func() time.Time

	mu   sync.Mutex
	last []warn.Warning

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// New creates a watcher for the given plan directory. Logs append to
// .studyflow/logs/watch.log.
func New(st *store.Store, cfg model.Config, opts schedule.Options, engine *warn.Engine, bus *events.Bus) (*Watcher, error) {
	logPath := filepath.Join(st.MetaDir(), "logs", "watch.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open watch log: %w", err)
	}

	return newWatcher(st, cfg, opts, engine, bus, logFile, logFile), nil
}

// newWatcher is the internal constructor for testing.
func newWatcher(st *store.Store, cfg model.Config, opts schedule.Options, engine *warn.Engine, bus *events.Bus, w io.Writer, closer io.Closer) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		store:    st,
		cfg:      cfg,
		opts:     opts,
		engine:   engine,
		bus:      bus,
		logLevel: parseLogLevel(cfg.Logging.Level),
		logger:   log.New(w, "", 0),
		logFile:  closer,
		fileLock: lock.NewFileLock(st.WatchLockPath()),
		notifyFn: notify.SendIfAvailable,
		nowFn:    time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the watcher and blocks until shutdown completes.
func (w *Watcher) Run() error {
	// Step 1: Acquire file lock
	if err := os.MkdirAll(filepath.Dir(w.store.WatchLockPath()), 0755); err != nil {
		return fmt.Errorf("create locks dir: %w", err)
	}
	if err := w.fileLock.TryLock(); err != nil {
		return fmt.Errorf("watch lock: %w", err)
	}
	w.log(LogLevelInfo, "watcher starting pid=%d dir=%s", os.Getpid(), w.store.Dir())

	// Step 2: Init fsnotify watcher on the plan directory
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.fileLock.Unlock()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.watcher = watcher
	if err := watcher.Add(w.store.Dir()); err != nil {
		w.cleanup()
		return fmt.Errorf("watch %s: %w", w.store.Dir(), err)
	}

	// Step 3: Start event loop
	w.wg.Add(1)
	go w.eventLoop()

	// Step 4: Initial recompute so the first notification baseline exists
	w.Recompute()
	w.log(LogLevelInfo, "watcher ready")

	// Step 5: Wait for signals
	w.waitSignals()

	return nil
}

// eventLoop debounces plan file changes before recomputing.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	debounce := time.Duration(w.cfg.Watcher.DebounceSec * float64(time.Second))
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	var pending <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != store.PlanFileName {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.log(LogLevelDebug, "fsnotify event=%s file=%s", event.Op, event.Name)
				pending = time.After(debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log(LogLevelError, "fsnotify error=%v", err)
		case <-pending:
			pending = nil
			w.bus.Publish(events.EventPlanChanged, map[string]interface{}{"file": w.store.PlanPath()})
			w.Recompute()
		}
	}
}

// Recompute re-evaluates warnings. Concurrent triggers collapse into a single
// evaluation via singleflight.
func (w *Watcher) Recompute() {
	_, _, _ = w.group.Do("recompute", func() (interface{}, error) {
		plan, err := w.store.LoadPlan()
		if err != nil {
			w.log(LogLevelError, "load plan failed: %v", err)
			return nil, err
		}

		current := w.engine.Evaluate(plan.Items, w.nowFn())

		w.mu.Lock()
		previous := w.last
		w.last = current
		w.mu.Unlock()

		if warningsEqual(previous, current) {
			w.log(LogLevelDebug, "recompute: warnings unchanged (%d)", len(current))
			return nil, nil
		}

		w.log(LogLevelInfo, "recompute: %d warning(s), was %d", len(current), len(previous))
		w.bus.Publish(events.EventWarningsChanged, map[string]interface{}{"count": len(current)})
		w.notifyNew(previous, current)
		return nil, nil
	})
}

// Warnings returns the latest computed warning set.
func (w *Watcher) Warnings() []warn.Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]warn.Warning, len(w.last))
	copy(out, w.last)
	return out
}

// notifyNew sends a desktop notification for each warning that was not in the
// previous set and meets the configured severity threshold.
func (w *Watcher) notifyNew(previous, current []warn.Warning) {
	threshold := warn.Severity(w.cfg.Watcher.NotifySeverity).Rank()
	seen := make(map[string]bool, len(previous))
	for _, p := range previous {
		seen[warningKey(p)] = true
	}

	for _, c := range current {
		if c.Severity.Rank() < threshold || seen[warningKey(c)] {
			continue
		}
		w.log(LogLevelInfo, "notify severity=%s kind=%s", c.Severity, c.Kind)
		w.notifyFn(fmt.Sprintf("studyflow: %s", c.Kind), c.Message)
	}
}

func warningKey(w warn.Warning) string {
	return string(w.Kind) + "|" + w.Message
}

func warningsEqual(a, b []warn.Warning) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if warningKey(a[i]) != warningKey(b[i]) || a[i].Severity != b[i].Severity {
			return false
		}
	}
	return true
}

// waitSignals blocks until a shutdown signal is received.
func (w *Watcher) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	w.log(LogLevelInfo, "received signal=%s, initiating graceful shutdown", sig)

	// Second signal → force exit
	go func() {
		<-sigCh
		w.log(LogLevelWarn, "received second signal, forcing exit")
		os.Exit(1)
	}()

	w.Shutdown()
}

// Shutdown performs graceful shutdown (idempotent via sync.Once).
func (w *Watcher) Shutdown() {
	w.shutdown.Do(func() {
		w.log(LogLevelInfo, "shutdown started")

		w.cancel()
		if w.watcher != nil {
			w.watcher.Close()
		}

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			w.log(LogLevelInfo, "event loop drained")
		case <-time.After(5 * time.Second):
			w.log(LogLevelWarn, "shutdown timeout, event loop may be stuck")
		}

		w.cleanup()
		w.log(LogLevelInfo, "watcher stopped")
	})
}

// cleanup releases resources.
func (w *Watcher) cleanup() {
	w.fileLock.Unlock()
	if w.logFile != nil {
		w.logFile.Close()
	}
}

func (w *Watcher) log(level LogLevel, format string, args ...any) {
	if level < w.logLevel {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	w.logger.Printf("%s %s watch: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
