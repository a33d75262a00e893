package homemap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLoad(t *testing.T) {
	t.Parallel()

	var r Registry
	assert.Nil(t, r.Map())
	assert.Zero(t, r.Len(KindTags))

	m := []byte("map")
	tags := []byte("tags!")
	idx := []byte("index bytes")
	r.LoadMap(m)
	r.LoadTags(tags)
	r.LoadIndex(idx)

	assert.Equal(t, m, r.Map())
	assert.Equal(t, tags, r.Tags())
	assert.Equal(t, idx, r.Index())
	assert.Equal(t, 3, r.Len(KindMap))
	assert.Equal(t, 5, r.Len(KindTags))
	assert.Equal(t, 11, r.Len(KindIndex))
	assert.Zero(t, r.Len(Kind(9)))

	// The registry aliases, never copies.
	assert.Same(t, &m[0], &r.Map()[0])
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Load(KindMap, []byte("one"))
	r.Load(KindTags, []byte("tags"))
	r.Load(KindMap, []byte("two"))

	assert.Equal(t, []byte("two"), r.Map())
	assert.Equal(t, []byte("tags"), r.Tags(), "replacing one kind keeps the others")

	r.Load(Kind(42), []byte("ignored"))
	assert.Equal(t, []byte("two"), r.Map())
}

func TestRegistryConcurrentLoads(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for _, k := range Kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Load(k, []byte(k.String()))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []byte("map"), r.Map())
	assert.Equal(t, []byte("tags"), r.Tags())
	assert.Equal(t, []byte("index"), r.Index())
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "tags", KindTags.String())
	assert.Equal(t, "index", KindIndex.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
