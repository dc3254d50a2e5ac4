package game

import (
	"strconv"
	"sync"
)

// idgen numbers rooms the way the directory lists them: "1", "2", ... Ids
// stay reserved until disposed so a custom-created room can never collide
// with a generated one.
type idgen struct {
	locker  sync.Mutex
	counter int
	inUse   map[string]struct{}
}

func NewIdGen() *idgen {
	return &idgen{inUse: make(map[string]struct{})}
}

func (g *idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()
	for {
		g.counter++
		id := strconv.Itoa(g.counter)
		if _, taken := g.inUse[id]; !taken {
			g.inUse[id] = struct{}{}
			return id
		}
	}
}

// Reserve marks a caller-chosen id as taken. Reports false when already held.
func (g *idgen) Reserve(id string) bool {
	g.locker.Lock()
	defer g.locker.Unlock()
	if _, taken := g.inUse[id]; taken {
		return false
	}
	g.inUse[id] = struct{}{}
	return true
}

func (g *idgen) Dispose(id string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.inUse, id)
}
