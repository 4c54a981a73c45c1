package load_config

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskLocationsConcurrent(t *testing.T) {
	tl := NewTaskLocations()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tl.Register("db", "t", fmt.Sprint(i), fmt.Sprintf("/tmp/%d", i), "/store")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		loc, ok := tl.TempLocation("db", "t", fmt.Sprint(i))
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("/tmp/%d", i), loc)
	}
	require.Equal(t, "db_t_3", TempLocationKey("db", "t", "3"))

	tl.Forget("db", "t", "3")
	_, ok := tl.TempLocation("db", "t", "3")
	require.False(t, ok)
}
