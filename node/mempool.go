package node

import (
	"sync"

	"plasma.dev/node/consensus"
)

// TxQueue is the pending-transaction FIFO. Push never blocks or rejects;
// the miner peeks a prefix and removes it only after the block that
// consumed it is committed.
type TxQueue struct {
	mu  sync.Mutex
	txs []*consensus.Tx
}

func NewTxQueue() *TxQueue {
	return &TxQueue{}
}

func (q *TxQueue) Push(txs ...*consensus.Tx) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tx := range txs {
		if tx != nil {
			q.txs = append(q.txs, tx)
		}
	}
}

// Peek returns up to n transactions from the head of the queue without
// removing them.
func (q *TxQueue) Peek(n int) []*consensus.Tx {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.txs) {
		n = len(q.txs)
	}
	if n <= 0 {
		return nil
	}
	out := make([]*consensus.Tx, n)
	copy(out, q.txs[:n])
	return out
}

// Remove drops the first n transactions.
func (q *TxQueue) Remove(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.txs) {
		n = len(q.txs)
	}
	if n <= 0 {
		return
	}
	rest := make([]*consensus.Tx, len(q.txs)-n)
	copy(rest, q.txs[n:])
	q.txs = rest
}

func (q *TxQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.txs)
}
