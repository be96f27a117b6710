package trackings

import "sync"

// codeLocks сериализует Sync по одному коду внутри процесса.
type codeLocks struct {
	mu    sync.Mutex
	locks map[string]*codeLock
}

type codeLock struct {
	mu   sync.Mutex
	refs int
}

func newCodeLocks() *codeLocks {
	return &codeLocks{locks: make(map[string]*codeLock)}
}

func (l *codeLocks) Lock(code string) func() {
	l.mu.Lock()
	cl, ok := l.locks[code]
	if !ok {
		cl = &codeLock{}
		l.locks[code] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, code)
		}
		l.mu.Unlock()
	}
}
