package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/glimte/statemate-go/contracts"
)

// Collector defines the interface for collecting dispatch metrics.
type Collector interface {
	IncrementActionCount(actionType string)
	RecordReduceTime(actionType string, duration time.Duration)
	IncrementSourceCount(sourceTag string)
}

// MetricsMiddleware collects metrics about action processing.
type MetricsMiddleware[S, A any] struct {
	collector Collector
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware[S, A any](collector Collector) *MetricsMiddleware[S, A] {
	return &MetricsMiddleware[S, A]{collector: collector}
}

// Process implements Middleware.
func (m *MetricsMiddleware[S, A]) Process(ctx context.Context, env contracts.Envelope[A], _ Runtime[S, A]) AfterReducer {
	start := time.Now()
	actionType := contracts.TypeName(env.Action)

	m.collector.IncrementActionCount(actionType)
	m.collector.IncrementSourceCount(env.Source.Tag)

	return func(ctx context.Context) {
		m.collector.RecordReduceTime(actionType, time.Since(start))
	}
}

// Name implements Middleware.
func (m *MetricsMiddleware[S, A]) Name() string {
	return "MetricsMiddleware"
}

// InMemoryCollector is a Collector backed by in-process maps, suitable for
// tests and single-process introspection.
type InMemoryCollector struct {
	mu           sync.RWMutex
	actionCounts map[string]int64
	sourceCounts map[string]int64
	reduceCounts map[string]int64
	reduceTotals map[string]time.Duration
}

// NewInMemoryCollector creates an empty collector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{
		actionCounts: make(map[string]int64),
		sourceCounts: make(map[string]int64),
		reduceCounts: make(map[string]int64),
		reduceTotals: make(map[string]time.Duration),
	}
}

// IncrementActionCount implements Collector.
func (c *InMemoryCollector) IncrementActionCount(actionType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionCounts[actionType]++
}

// RecordReduceTime implements Collector.
func (c *InMemoryCollector) RecordReduceTime(actionType string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reduceCounts[actionType]++
	c.reduceTotals[actionType] += duration
}

// IncrementSourceCount implements Collector.
func (c *InMemoryCollector) IncrementSourceCount(sourceTag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceCounts[sourceTag]++
}

// ActionCount returns how many envelopes carried the given action type.
func (c *InMemoryCollector) ActionCount(actionType string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actionCounts[actionType]
}

// SourceCount returns how many envelopes originated from the given tag.
func (c *InMemoryCollector) SourceCount(sourceTag string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sourceCounts[sourceTag]
}

// AverageReduceTime returns the mean bracket duration for the given action
// type, zero if none was recorded.
func (c *InMemoryCollector) AverageReduceTime(actionType string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := c.reduceCounts[actionType]
	if count == 0 {
		return 0
	}
	return c.reduceTotals[actionType] / time.Duration(count)
}
