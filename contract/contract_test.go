package contract

import (
	"io"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

type memStore struct{ data map[string]string }

func (m *memStore) Get(key string) (string, error) { return m.data[key], nil }
func (m *memStore) Put(key, value string) error    { m.data[key] = value; return nil }

type looseStore struct{}

func (looseStore) Get(key string) string { return "" }
func (looseStore) Put(key, value string)  {}

func TestMethods(t *testing.T) {
	c := Methods("store", "Get", "Put")

	assert.NoError(t, c.Check(&memStore{}))
	assert.NoError(t, c.Check(looseStore{}))

	err := c.Check(struct{}{})
	require.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "Get, Put")

	assert.ErrorIs(t, c.Check(nil), ErrNotImplemented)
}

func TestMethods_RepeatedNames(t *testing.T) {
	c := Methods("store", "Get", "Put", "Get")
	assert.Equal(t, []string{"Get", "Put"}, c.Methods)

	err := c.Check(struct{}{})
	require.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "is missing Get, Put")
}

func TestOf(t *testing.T) {
	c := Of[store]("store")
	assert.ElementsMatch(t, []string{"Get", "Put"}, c.Methods)

	assert.NoError(t, c.Check(&memStore{}))

	err := c.Check(looseStore{})
	require.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "does not implement")

	assert.ErrorIs(t, c.Check(io.Discard), ErrNotImplemented)

	assert.Panics(t, func() { Of[memStore]("bad") })
}

func TestWrap(t *testing.T) {
	c := Methods("store", "Get")
	inst := &memStore{}

	out, err := c.Wrap("cache", inst)
	require.NoError(t, err)
	assert.Same(t, inst, out)

	_, err = c.Wrap("cache", 42)
	assert.ErrorContains(t, err, `service "cache"`)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"store.yaml":       {Data: []byte("methods: [Get, Put]\n")},
		"nested/queue.yml": {Data: []byte("name: jobs\nmethods: [Push]\n")},
		"notes.txt":        {Data: []byte("ignored")},
	}

	contracts, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	assert.Equal(t, "jobs", contracts[0].Name)
	assert.Equal(t, []string{"Push"}, contracts[0].Methods)
	assert.Equal(t, "store", contracts[1].Name)

	t.Run("empty method list", func(t *testing.T) {
		_, err := Load(fstest.MapFS{"x.yaml": {Data: []byte("name: x\n")}})
		assert.ErrorContains(t, err, "no methods")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(fstest.MapFS{"x.yaml": {Data: []byte("methods: [\n")}})
		assert.ErrorContains(t, err, "parsing contract x.yaml")
	})
}
