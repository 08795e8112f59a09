package chess

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool bounds how many searches run at once. Each difficulty gets its own
// bucket of workers so long hard searches cannot starve easy ones.
type Pool struct {
	perPresetCapacity int

	mu      sync.Mutex
	buckets map[string]*workerBucket
	closed  bool
}

type PoolConfig struct {
	PerPresetCapacity int
}

// Worker is a search slot. The search state lives in the goroutine that
// holds it; counters are kept on the bucket.
type Worker struct {
	id     int
	bucket *workerBucket
}

var (
	errBucketAtCapacity = errors.New("worker bucket at capacity")
	ErrPoolClosed       = errors.New("search pool closed")
)

func NewPool(cfg PoolConfig) *Pool {
	capacity := cfg.PerPresetCapacity
	if capacity <= 0 {
		capacity = defaultPerPresetCapacity()
	}
	return &Pool{
		perPresetCapacity: capacity,
		buckets:           make(map[string]*workerBucket),
	}
}

// Acquire blocks until a worker for the preset is free or ctx ends.
func (p *Pool) Acquire(ctx context.Context, preset string) (*Worker, error) {
	bucket, err := p.getBucket(preset)
	if err != nil {
		return nil, err
	}
	select {
	case w := <-bucket.idle:
		return w, nil
	default:
	}

	w, err := bucket.create()
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, errBucketAtCapacity) {
		return nil, err
	}

	select {
	case w := <-bucket.idle:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) Release(w *Worker) {
	if w == nil || w.bucket == nil {
		return
	}
	if !w.bucket.put(w) {
		w.bucket.decrement()
	}
}

// Stats reports workers created and searches completed per preset.
func (p *Pool) Stats() map[string]PoolStats {
	p.mu.Lock()
	buckets := make([]*workerBucket, 0, len(p.buckets))
	for _, b := range p.buckets {
		buckets = append(buckets, b)
	}
	p.mu.Unlock()

	out := make(map[string]PoolStats, len(buckets))
	for _, b := range buckets {
		b.mu.Lock()
		out[b.key] = PoolStats{Workers: b.total, Capacity: b.capacity, Searches: b.searches, Nodes: b.nodes}
		b.mu.Unlock()
	}
	return out
}

type PoolStats struct {
	Workers  int
	Capacity int
	Searches int
	Nodes    int64
}

// Close rejects further Acquire calls. Searches already holding a worker
// finish normally.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *Pool) getBucket(key string) (*workerBucket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	bucket, ok := p.buckets[key]
	if !ok {
		bucket = newWorkerBucket(key, p.perPresetCapacity)
		p.buckets[key] = bucket
	}
	return bucket, nil
}

type workerBucket struct {
	key      string
	capacity int

	mu       sync.Mutex
	total    int
	nextID   int
	searches int
	nodes    int64
	idle     chan *Worker
}

func newWorkerBucket(key string, capacity int) *workerBucket {
	if capacity <= 0 {
		capacity = 1
	}
	return &workerBucket{
		key:      key,
		capacity: capacity,
		idle:     make(chan *Worker, capacity),
	}
}

func (b *workerBucket) create() (*Worker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total >= b.capacity {
		return nil, errBucketAtCapacity
	}
	b.total++
	b.nextID++
	return &Worker{id: b.nextID, bucket: b}, nil
}

func (b *workerBucket) put(w *Worker) bool {
	select {
	case b.idle <- w:
		return true
	default:
		return false
	}
}

func (b *workerBucket) record(nodes int64) {
	b.mu.Lock()
	b.searches++
	b.nodes += nodes
	b.mu.Unlock()
}

func (b *workerBucket) decrement() {
	b.mu.Lock()
	if b.total > 0 {
		b.total--
	}
	b.mu.Unlock()
}

func defaultPerPresetCapacity() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
