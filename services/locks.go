package services

import "sync"

// keyedLocks hands out one mutex per key, serializing read-modify-write
// cycles on the same account or referrer within this process. Cross-process
// safety additionally rests on the store's unique constraints.
type keyedLocks struct {
	locks sync.Map // key → *sync.Mutex
}

func (l *keyedLocks) lock(key string) (unlock func()) {
	v, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
