package events

import (
	"sync"
	"time"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateFailed  = "FAILED"
)

// Record is one queued operational event.
type Record struct {
	ID          string
	Name        string
	Key         string
	Payload     []byte
	OccurredAt  time.Time
	Headers     map[string]string
	Attempts    int
	NextAttempt time.Time
	LastError   string
	state       string
}

// Queue is a bounded in-memory outbox. When full, the oldest record is dropped.
type Queue struct {
	mu       sync.Mutex
	records  []*Record
	capacity int
	dropped  int
	now      func() time.Time
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{capacity: capacity, now: time.Now}
}

func (q *Queue) Add(rec Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if rec.Headers == nil {
		rec.Headers = map[string]string{}
	}
	rec.state = stateNew
	rec.NextAttempt = q.now()
	if len(q.records) >= q.capacity {
		q.records = q.records[1:]
		q.dropped++
	}
	q.records = append(q.records, &rec)
}

// Claim returns the oldest record due for delivery, or nil.
func (q *Queue) Claim() *Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for _, rec := range q.records {
		if rec.state == stateClaimed || rec.NextAttempt.After(now) {
			continue
		}
		rec.state = stateClaimed
		claimed := *rec
		return &claimed
	}
	return nil
}

func (q *Queue) MarkSent(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, rec := range q.records {
		if rec.ID == id {
			q.records = append(q.records[:i], q.records[i+1:]...)
			return
		}
	}
}

func (q *Queue) MarkFailed(id string, next time.Time, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rec := range q.records {
		if rec.ID == id {
			rec.state = stateFailed
			rec.Attempts++
			rec.NextAttempt = next
			rec.LastError = errMsg
			return
		}
	}
}

// Len counts records not yet delivered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
