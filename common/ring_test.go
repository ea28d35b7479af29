package common

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](3)
	assert.Empty(t, rb.Get())

	rb.Add(1)
	rb.Add(2)
	assert.Equal(t, []int{1, 2}, rb.Get())

	rb.Add(3)
	rb.Add(4)
	assert.Equal(t, []int{2, 3, 4}, rb.Get())
	assert.Equal(t, 3, rb.Len())
}

func TestRingBuffer_GetIsACopy(t *testing.T) {
	rb := NewRingBuffer[int](2)
	rb.Add(1)
	got := rb.Get()
	got[0] = 9
	assert.Equal(t, []int{1}, rb.Get())
}

func TestRingBuffer_Concurrent(t *testing.T) {
	rb := NewRingBuffer[int](10)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rb.Add(i)
			_ = rb.Get()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, rb.Len())
}
