// Package teleop drives the cube rig from gamepad button events.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/cuberig/pkg/rig"
)

// Snapshot is the state published after every executed action.
type Snapshot struct {
	State     rig.State
	Action    rig.Action
	Queued    int
	Timestamp time.Time
	Error     error
}

// Controller routes button events to the rig. Control signals are handled
// on the caller's goroutine; everything else goes through the queue to a
// single executor started by Start.
type Controller struct {
	driver   rig.Driver
	keymap   rig.Keymap
	queue    *rig.Queue
	executor *rig.Executor

	mu      sync.Mutex
	running bool

	terminateOnce sync.Once
	terminated    chan struct{}

	stateCh chan Snapshot
	logCh   chan string
}

// Config holds configuration for the controller.
type Config struct {
	Driver     rig.Driver
	Keymap     rig.Keymap
	Executor   rig.ExecutorConfig
	QueueDepth int
}

// NewController creates a new controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Driver == nil {
		return nil, errors.New("no motor driver")
	}
	if cfg.Keymap == nil {
		cfg.Keymap = rig.DefaultKeymap()
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 1
	}

	c := &Controller{
		driver:     cfg.Driver,
		keymap:     cfg.Keymap,
		queue:      rig.NewQueue(cfg.QueueDepth),
		terminated: make(chan struct{}),
		stateCh:    make(chan Snapshot, 1),
		logCh:      make(chan string, 32),
	}

	executor, err := rig.NewExecutor(cfg.Driver, cfg.Executor,
		rig.WithLogger(c.log),
		rig.WithStepHook(c.stepDone),
	)
	if err != nil {
		return nil, fmt.Errorf("create executor: %w", err)
	}
	c.executor = executor
	return c, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan Snapshot {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Terminated is closed once a terminate button has been pressed and the
// motors have been told to halt.
func (c *Controller) Terminated() <-chan struct{} {
	return c.terminated
}

// Queued returns the number of actions waiting to run.
func (c *Controller) Queued() int {
	return c.queue.Len()
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// DeviceAdded is the input source's connect callback.
func (c *Controller) DeviceAdded(name string) {
	c.log("Gamepad connected: %s", name)
}

// DeviceRemoved is the input source's disconnect callback.
func (c *Controller) DeviceRemoved(name string) {
	c.log("Gamepad disconnected: %s", name)
}

// HandleButton translates a button event and acts on it. It never blocks
// on the executor: a full queue drops the action.
func (c *Controller) HandleButton(id int, pressed bool) {
	action, ok := c.keymap.Translate(id, pressed)
	if !ok {
		return
	}
	c.Dispatch(action)
}

// Dispatch handles a translated action.
func (c *Controller) Dispatch(action rig.Action) {
	switch action {
	case rig.FlushQueue:
		n := c.queue.Flush()
		c.log("Flushed %d queued action(s)", n)
	case rig.Terminate:
		c.Terminate()
	default:
		if c.queue.TryEnqueue(action) {
			c.log("Queued %s", action)
		} else {
			c.log("Queue full, dropped %s", action)
		}
	}
}

// Terminate halts the motors (best effort, racing any move in flight) and
// closes Terminated. Queued actions are not drained.
func (c *Controller) Terminate() {
	c.terminateOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.driver.HaltAll(ctx); err != nil {
			c.log("Warning: failed to halt motors: %v", err)
		} else {
			c.log("Motors halted")
		}
		close(c.terminated)
	})
}

// Start runs the executor until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.log("Rig ready, queue depth %d", c.queue.Depth())
	err := c.executor.Run(ctx, c.queue)
	c.log("Rig stopped")
	return err
}

func (c *Controller) stepDone(a rig.Action, s rig.State, err error) {
	c.sendState(Snapshot{
		State:     s,
		Action:    a,
		Queued:    c.queue.Len(),
		Timestamp: time.Now(),
		Error:     err,
	})
}

func (c *Controller) sendState(s Snapshot) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}
