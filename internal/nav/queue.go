package nav

import (
	"sort"

	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
)

// Request is a queued path query. Requests are resolved in bounded batches
// per tick so a burst of simultaneous orders cannot blow the tick budget.
type Request struct {
	Entity   ecs.EntityID
	Priority int
	Start    geom.Vec2
	Target   geom.Vec2
	Resolve  func(path []geom.Vec2)
}

type requestQueue struct {
	pending []Request
}

func (q *requestQueue) push(req Request) {
	// One outstanding request per entity; a newer order supersedes it.
	for i := range q.pending {
		if q.pending[i].Entity == req.Entity {
			q.pending[i] = req
			return
		}
	}
	q.pending = append(q.pending, req)
}

// take removes up to limit requests ordered by priority (highest first),
// then by entity identifier. The entity tie-break keeps batch order
// identical across peers.
func (q *requestQueue) take(limit int) []Request {
	if limit <= 0 || len(q.pending) == 0 {
		return nil
	}
	sort.SliceStable(q.pending, func(i, j int) bool {
		if q.pending[i].Priority != q.pending[j].Priority {
			return q.pending[i].Priority > q.pending[j].Priority
		}
		return q.pending[i].Entity < q.pending[j].Entity
	})
	if limit > len(q.pending) {
		limit = len(q.pending)
	}
	batch := q.pending[:limit]
	rest := make([]Request, len(q.pending)-limit)
	copy(rest, q.pending[limit:])
	taken := make([]Request, limit)
	copy(taken, batch)
	q.pending = rest
	return taken
}

func (q *requestQueue) len() int {
	return len(q.pending)
}
