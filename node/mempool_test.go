package node

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"plasma.dev/node/consensus"
)

func TestTxQueue_FIFOAndPrefixRemoval(t *testing.T) {
	q := NewTxQueue()
	txs := make([]*consensus.Tx, 5)
	for i := range txs {
		txs[i] = &consensus.Tx{Number: uint16(i)}
	}
	q.Push(txs...)
	q.Push(nil)
	require.Equal(t, 5, q.Len())

	head := q.Peek(3)
	require.Len(t, head, 3)
	require.Same(t, txs[0], head[0])
	require.Equal(t, 5, q.Len(), "peek must not remove")

	q.Push(&consensus.Tx{Number: 99})
	q.Remove(3)
	rest := q.Peek(10)
	require.Len(t, rest, 3)
	require.Same(t, txs[3], rest[0])
	require.Equal(t, uint16(99), rest[2].Number)

	q.Remove(100)
	require.Zero(t, q.Len())
	require.Nil(t, q.Peek(1))
}

func TestTxQueue_ConcurrentPush(t *testing.T) {
	q := NewTxQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(&consensus.Tx{})
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, q.Len())
}
