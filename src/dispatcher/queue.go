package dispatcher

import (
	"slices"

	"liftsim/src/types"
)

// RequestQueue holds requests no car could take when they arrived.
// FIFO, except PushFront which is reserved for a retry that must keep its place.
type RequestQueue struct {
	items []types.FloorRequest
}

func (q *RequestQueue) PushBack(req types.FloorRequest) {
	q.items = append(q.items, req)
}

func (q *RequestQueue) PushFront(req types.FloorRequest) {
	q.items = slices.Insert(q.items, 0, req)
}

func (q *RequestQueue) PopFront() (types.FloorRequest, bool) {
	if len(q.items) == 0 {
		return types.FloorRequest{}, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

func (q *RequestQueue) Contains(req types.FloorRequest) bool {
	return slices.Contains(q.items, req)
}

func (q *RequestQueue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queued requests, head first.
func (q *RequestQueue) Items() []types.FloorRequest {
	return slices.Clone(q.items)
}
