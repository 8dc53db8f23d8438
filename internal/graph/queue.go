package graph

// openItem is a station waiting in the A* open set.
type openItem struct {
	node         int
	fScore       float64
	indexInQueue int
}

// openSet orders by f-score; equal scores go to the lowest station index.
type openSet []*openItem

func (queue openSet) Len() int { return len(queue) }
func (queue openSet) Less(i, j int) bool {
	if queue[i].fScore != queue[j].fScore {
		return queue[i].fScore < queue[j].fScore
	}
	return queue[i].node < queue[j].node
}
func (queue openSet) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].indexInQueue = i
	queue[j].indexInQueue = j
}

func (queue *openSet) Push(x any) {
	item := x.(*openItem)
	item.indexInQueue = len(*queue)
	*queue = append(*queue, item)
}

func (queue *openSet) Pop() any {
	old := *queue
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*queue = old[:n-1]
	return item
}
