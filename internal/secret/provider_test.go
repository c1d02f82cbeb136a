package secret

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingSource) Fetch(context.Context) (string, error) {
	n := s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return "", s.err
	}
	if n == 1 {
		return "first", nil
	}
	return "later", nil
}

func TestCachedProviderFetchesOnce(t *testing.T) {
	source := &countingSource{delay: 20 * time.Millisecond}
	provider := NewCachedProvider(source)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := provider.Credential(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), source.calls.Load())
	for _, v := range results {
		assert.Equal(t, "first", v)
	}

	v, err := provider.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	source := &countingSource{err: errors.New("forbidden")}
	provider := NewCachedProvider(source)

	_, err := provider.Credential(context.Background())
	require.Error(t, err)

	source.err = nil
	v, err := provider.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "later", v)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestStaticSource(t *testing.T) {
	v, err := StaticSource("k").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", v)

	_, err = NewCachedProvider(StaticSource("")).Credential(context.Background())
	assert.ErrorIs(t, err, ErrEmptySecret)
}
