package keyedmutex_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"drinkup/internal/utils/keyedmutex"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := keyedmutex.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("pair:a:b")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLockIsReusableAfterUnlock(t *testing.T) {
	m := keyedmutex.New()

	unlock := m.Lock("key")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("key")
		unlock()
		close(done)
	}()
	<-done
}
