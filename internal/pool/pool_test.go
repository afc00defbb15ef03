package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCreatesViaConstructorWhenEmpty(t *testing.T) {
	builds := 0
	p := New(func() *int {
		builds++
		v := 42
		return &v
	})

	first := p.Get()
	require.NotNil(t, first)
	assert.Equal(t, 42, *first)

	p.Put(first)

	second := p.Get()
	require.NotNil(t, second)
}

func TestPoolIsSafeForConcurrentUse(t *testing.T) {
	p := New(func() []byte {
		return make([]byte, 1024)
	})

	var wg sync.WaitGroup
	const workers = 100
	const rounds = 100

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				buf := p.Get()
				assert.Len(t, buf, 1024)
				buf[0] = byte(r)
				p.Put(buf)
			}
		}(i)
	}

	wg.Wait()
}

func TestPoolWorksWithValueAndStructTypes(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		p := New(func() string { return "default" })
		assert.Equal(t, "default", p.Get())
		p.Put("reused")
	})

	t.Run("pointer to struct", func(t *testing.T) {
		type entry struct {
			ID   int
			Name string
		}
		p := New(func() *entry { return &entry{Name: "new"} })

		got := p.Get()
		assert.Equal(t, "new", got.Name)
		got.ID = 7
		got.Name = "used"
		p.Put(got)
	})
}
