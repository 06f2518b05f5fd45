package parser

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConcurrentVerify runs many verifications at once against one manager.
func TestConcurrentVerify(t *testing.T) {
	manager := newTestManager(t)

	const numGoroutines = 100
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	errChan := make(chan error, numGoroutines)

	valid := []byte("Widget build() => Text('a');")
	invalid := []byte("Widget build() => Text('a';")
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			src, wantErr := valid, false
			if id%2 == 1 {
				src, wantErr = invalid, true
			}
			err := manager.Verify(context.Background(), src, "main.dart")
			if (err != nil) != wantErr {
				errChan <- assert.AnError
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	assert.Empty(t, errs, "Verify results should not depend on interleaving")

	stats := manager.GetStats()
	assert.LessOrEqual(t, stats.ParsersCreated, getPoolSize(0))
	assert.GreaterOrEqual(t, stats.ParsersCreated, 1)
	assert.Equal(t, numGoroutines, stats.ParsesCalled)
}

func TestConcurrentLazyInitialization(t *testing.T) {
	manager := newTestManager(t)

	const numGoroutines = 20
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			tree, err := manager.Parse([]byte("final x = 1;"), LanguageDart)
			if err == nil {
				tree.Close()
			}
		}()
	}
	wg.Wait()

	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	assert.Len(t, manager.pools, 1, "Only one pool should be created for Dart")
}
