package orchestrator

import "container/heap"

// queueItem is one entry in the priority queue: a job ID plus enough
// ordering metadata to implement heap.Interface without looking the job
// back up.
type queueItem struct {
	id       string
	priority Priority
	seq      int64
	index    int
}

// priorityQueue orders queueItems by descending priority weight, then by
// ascending submission sequence (FIFO among equal priorities).
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	wi, wj := pq[i].priority.weight(), pq[j].priority.weight()
	if wi != wj {
		return wi > wj
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// removeByID removes the queued item for id, if present, returning
// whether anything was removed. Used by Cancel to pull a not-yet-started
// job out of the queue.
func (pq *priorityQueue) removeByID(id string) bool {
	for _, item := range *pq {
		if item.id == id {
			heap.Remove(pq, item.index)
			return true
		}
	}
	return false
}
