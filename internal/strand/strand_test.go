package strand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCompletesEveryConcurrentCaller(t *testing.T) {
	s := New(0)
	defer s.Close()

	var order []int
	var results = make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			s.Run(func() { order = append(order, i) })
			results <- i
		}()
	}
	for i := 0; i < 3; i++ {
		<-results
	}
	assert.Len(t, order, 3)
}

func TestPostDoesNotBlockCaller(t *testing.T) {
	s := New(4)
	defer s.Close()

	done := make(chan struct{})
	s.Post(func() { close(done) })
	<-done
}

func TestRunReturnsAfterCompletion(t *testing.T) {
	s := New(0)
	defer s.Close()

	x := 0
	s.Run(func() { x = 42 })
	assert.Equal(t, 42, x)
}
