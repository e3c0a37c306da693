package framework

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// ScheduledOperation is an operation placed on the time axis.
type ScheduledOperation struct {
	Operation
	Start int
	End   int
}

// Timeline is the result of simulating a sequence, in sequence order.
type Timeline []ScheduledOperation

// Makespan is the latest end time on the timeline.
func (tl Timeline) Makespan() int {
	ms := 0
	for _, so := range tl {
		if so.End > ms {
			ms = so.End
		}
	}
	return ms
}

// ByMachine groups the timeline per machine, keeping sequence order inside each machine.
func (tl Timeline) ByMachine() map[int][]ScheduledOperation {
	out := make(map[int][]ScheduledOperation)
	for _, so := range tl {
		out[so.Machine] = append(out[so.Machine], so)
	}
	return out
}

// Simulate runs greedy list scheduling over ops in the given order: every
// operation starts as soon as both its machine and its job are free.
func Simulate(ops []Operation) Timeline {
	machineDone := make(map[int]int)
	jobDone := make(map[int]int)
	tl := make(Timeline, len(ops))

	for i, op := range ops {
		start := max(machineDone[op.Machine], jobDone[op.Job])
		end := start + op.ProcessingTime
		machineDone[op.Machine] = end
		jobDone[op.Job] = end
		tl[i] = ScheduledOperation{Operation: op, Start: start, End: end}
	}
	return tl
}

// Makespan is the greedy list-scheduling cost of ops. It is a pure function
// of the order of ops.
func Makespan(ops []Operation) int {
	machineDone := make(map[int]int)
	jobDone := make(map[int]int)
	ms := 0

	for _, op := range ops {
		start := max(machineDone[op.Machine], jobDone[op.Job])
		end := start + op.ProcessingTime
		machineDone[op.Machine] = end
		jobDone[op.Job] = end
		if end > ms {
			ms = end
		}
	}
	return ms
}

// GreedyEvaluator is the default Evaluator.
var GreedyEvaluator Evaluator = EvaluatorFunc(Makespan)

// CachedEvaluator memoises makespans by sequence. Populations converge
// quickly, so the same ordering is scored many times across generations.
type CachedEvaluator struct {
	next   Evaluator
	cache  *cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEvaluator wraps next. A zero ttl keeps entries for the lifetime of the evaluator.
func NewCachedEvaluator(next Evaluator, ttl time.Duration) *CachedEvaluator {
	if next == nil {
		next = GreedyEvaluator
	}
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, 2*ttl
	}
	return &CachedEvaluator{
		next:  next,
		cache: cache.New(expiration, cleanup),
	}
}

func (e *CachedEvaluator) Makespan(ops []Operation) int {
	key := sequenceKey(ops)
	if v, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return v.(int)
	}
	e.misses.Add(1)
	ms := e.next.Makespan(ops)
	e.cache.Set(key, ms, cache.DefaultExpiration)
	return ms
}

// Stats returns the cache hits and misses so far.
func (e *CachedEvaluator) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

// Len is the number of cached sequences.
func (e *CachedEvaluator) Len() int {
	return e.cache.ItemCount()
}

func sequenceKey(ops []Operation) string {
	var b strings.Builder
	b.Grow(len(ops) * 8)
	for _, op := range ops {
		b.WriteString(strconv.Itoa(op.Job))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(op.Machine))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(op.ProcessingTime))
		b.WriteByte(';')
	}
	return b.String()
}
