package nav

import (
	"container/heap"
	"math"

	"gridwar/server/internal/geom"
)

type navPoint struct {
	col int
	row int
}

// heuristic is the octile distance: exact for 8-directional movement with
// unit cardinal and sqrt(2) diagonal costs, so it never overestimates.
func heuristic(a, b navPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dz := math.Abs(float64(a.row - b.row))
	if dx > dz {
		return dx + (math.Sqrt2-1)*dz
	}
	return dz + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	seq    uint64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	// Equal f-scores break ties by insertion order so the expansion order
	// is identical on every peer.
	return pq[i].seq < pq[j].seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// astar runs an 8-directional search from start toward goal. When the goal
// is unreachable it returns the path to the closest-by-heuristic visited
// cell instead of failing; the caller always gets the best reachable
// approximation. Closest-cell ties go to the first node found (strict
// less-than), which is deterministic given the fixed expansion order.
func (g *Grid) astar(start, goal navPoint) ([]navPoint, bool) {
	open := &pathQueue{}
	heap.Init(open)
	var seq uint64
	startNode := &pathNode{point: start, g: 0, f: heuristic(start, goal)}
	heap.Push(open, startNode)
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	closest := startNode
	closestDist := heuristic(start, goal)

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}
		if d := heuristic(current.point, goal); d < closestDist {
			closestDist = d
			closest = current
		}

		for _, delta := range neighborOffsets {
			if delta.diagonal && !g.canTraverseDiagonal(current.point.col, current.point.row, delta) {
				continue
			}
			nc := current.point.col + delta.dx
			nr := current.point.row + delta.dz
			if !g.inBounds(nc, nr) {
				continue
			}
			if !g.canStep(current.point.col, current.point.row, nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentativeG := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			seq++
			heap.Push(open, &pathNode{
				point:  navPoint{col: nc, row: nr},
				g:      tentativeG,
				f:      tentativeG + heuristic(navPoint{col: nc, row: nr}, goal),
				seq:    seq,
				parent: current,
			})
		}
	}
	// Goal never reached: fall back to the closest visited cell.
	return reconstructPath(closest), false
}

func reconstructPath(end *pathNode) []navPoint {
	if end == nil {
		return nil
	}
	path := make([]navPoint, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// findPath resolves a world-space query against the baked grid. The result
// is nil only when the start cell cannot be located or stood on; an
// unreachable destination yields the closest reachable approximation.
func (g *Grid) findPath(start, target geom.Vec2, smoothingWindow int) []geom.Vec2 {
	if g == nil {
		return nil
	}
	startCol, startRow, ok := g.locate(start)
	if !ok || !g.cellWalkable(startCol, startRow) {
		return nil
	}
	goalCol, goalRow, ok := g.locate(target)
	if !ok {
		return nil
	}
	startPoint := navPoint{col: startCol, row: startRow}
	goalPoint := navPoint{col: goalCol, row: goalRow}
	nodes, exact := g.astar(startPoint, goalPoint)
	if len(nodes) == 0 {
		return nil
	}
	path := make([]geom.Vec2, 0, len(nodes))
	for _, node := range nodes {
		path = append(path, g.worldPos(node.col, node.row))
	}
	path = g.smooth(path, smoothingWindow)
	if exact {
		// Snap the final waypoint to the requested target inside the cell.
		if len(path) == 1 {
			return []geom.Vec2{target}
		}
		path[len(path)-1] = target
	}
	return path
}

// smooth removes intermediate waypoints by skipping ahead to the farthest
// waypoint visible within a bounded window. The bound exists so the greedy
// skip cannot cut across a diagonal seam the cell-by-cell path walked
// around.
func (g *Grid) smooth(path []geom.Vec2, window int) []geom.Vec2 {
	if len(path) <= 2 || window <= 1 {
		return path
	}
	smoothed := make([]geom.Vec2, 0, len(path))
	smoothed = append(smoothed, path[0])
	i := 0
	for i < len(path)-1 {
		limit := i + window
		if limit > len(path)-1 {
			limit = len(path) - 1
		}
		next := i + 1
		for candidate := limit; candidate > i+1; candidate-- {
			if g.lineOfSight(path[i], path[candidate]) {
				next = candidate
				break
			}
		}
		smoothed = append(smoothed, path[next])
		i = next
	}
	return smoothed
}
