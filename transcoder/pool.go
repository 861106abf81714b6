package transcoder

import "sync"

const (
	// Pool limits to prevent memory bloat
	poolMaxPath  = 64
	poolInitPath = 8
)

var statePool = sync.Pool{
	New: func() any {
		return &state{path: make([]string, 0, poolInitPath)}
	},
}

func getState() *state {
	return statePool.Get().(*state)
}

func putState(s *state) {
	if s == nil || cap(s.path) > poolMaxPath {
		return // reject oversized
	}
	*s = state{path: s.path[:0]}
	statePool.Put(s)
}
