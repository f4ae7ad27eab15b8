package callstack

import (
	"sync"
	"sync/atomic"
)

// CallableFn is a cleanup callback
type CallableFn func() error

// CallStack accumulates callbacks to be run at shutdown
type CallStack struct {
	calling  int32
	handlers []CallableFn
	sync.Mutex
}

// NewCallStack creates an empty CallStack
func NewCallStack() *CallStack {
	return &CallStack{
		calling:  0,
		handlers: make([]CallableFn, 0),
	}
}

// Add registers a callback
func (c *CallStack) Add(fn CallableFn) {
	c.Lock()
	defer c.Unlock()
	c.handlers = append(c.handlers, fn)
}

// Run executes all callbacks in reverse registration order
func (c *CallStack) Run(abortOnError bool) error {
	c.Lock()
	atomic.StoreInt32(&c.calling, 1)
	defer func() { atomic.StoreInt32(&c.calling, 0) }()
	defer c.Unlock()
	for i := len(c.handlers) - 1; i >= 0; i-- {
		if err := c.handlers[i](); err != nil && abortOnError {
			return err
		}
	}
	return nil
}

// RunLinear executes all callbacks in registration order
func (c *CallStack) RunLinear(abortOnError bool) error {
	c.Lock()
	atomic.StoreInt32(&c.calling, 1)
	defer func() { atomic.StoreInt32(&c.calling, 0) }()
	defer c.Unlock()
	for _, fn := range c.handlers {
		if err := fn(); err != nil && abortOnError {
			return err
		}
	}
	return nil
}

// IsCalling returns true while callbacks are running
func (c *CallStack) IsCalling() bool {
	return atomic.LoadInt32(&c.calling) == 1
}
