package datastructure

import "errors"

var (
	ErrItemNotInHeap = errors.New("heap: item not in heap")
	ErrRankIncreased = errors.New("heap: new rank is greater than the current rank")
)

type PriorityQueueNode[T comparable] struct {
	Rank float64
	Item T
	seq  uint64
}

func NewPriorityQueueNode[T comparable](rank float64, item T) PriorityQueueNode[T] {
	return PriorityQueueNode[T]{Rank: rank, Item: item}
}

// MinHeap binary heap priorityqueue with decrease-key. Items with equal rank come out in insertion order.
type MinHeap[T comparable] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
	seq  uint64
}

func NewMinHeap[T comparable]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) less(i, j int) bool {
	if h.heap[i].Rank != h.heap[j].Rank {
		return h.heap[i].Rank < h.heap[j].Rank
	}
	return h.heap[i].seq < h.heap[j].seq
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

// heapifyUp move the item at index towards the root while it is smaller than its parent. O(logN).
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.less(index, h.parent(index)) {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown move the item at index towards the leaves while a child is smaller. O(logN).
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	return h.heap[0], true
}

// Insert adds a new item. Inserting an item already in the heap lowers its rank instead when the new rank is smaller.
func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	if idx, ok := h.pos[key.Item]; ok {
		if key.Rank < h.heap[idx].Rank {
			h.heap[idx].Rank = key.Rank
			h.heapifyUp(idx)
		}
		return
	}
	key.seq = h.seq
	h.seq++
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.Item] = index
	h.heapifyUp(index)
}

// ExtractMin pops the item with the smallest rank. O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if !h.isEmpty() {
		h.heapifyDown(0)
	}
	return root, true
}

// DecreaseKey lowers the rank of an item already in the heap. O(logN).
func (h *MinHeap[T]) DecreaseKey(key PriorityQueueNode[T]) error {
	idx, ok := h.pos[key.Item]
	if !ok {
		return ErrItemNotInHeap
	}
	if key.Rank > h.heap[idx].Rank {
		return ErrRankIncreased
	}
	h.heap[idx].Rank = key.Rank
	h.heapifyUp(idx)
	return nil
}
