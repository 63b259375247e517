package testutil

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/dalemusser/waffle/pantry/storage"
)

// Files is an in-memory storage.Store whose writes and deletes can be made
// to fail, for exercising compensation paths.
type Files struct {
	*storage.Memory

	mu         sync.Mutex
	failPut    error
	failDelete error
}

// NewFiles returns an empty store whose URLs start with baseURL.
func NewFiles(baseURL string) *Files {
	return &Files{Memory: storage.NewMemory(storage.MemoryConfig{BaseURL: baseURL})}
}

// FailPut makes every later Put return err. nil restores normal writes.
func (f *Files) FailPut(err error) {
	f.mu.Lock()
	f.failPut = err
	f.mu.Unlock()
}

// FailDelete makes every later Delete return err. nil restores normal deletes.
func (f *Files) FailDelete(err error) {
	f.mu.Lock()
	f.failDelete = err
	f.mu.Unlock()
}

func (f *Files) Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error {
	f.mu.Lock()
	err := f.failPut
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.Put(ctx, path, r, opts)
}

func (f *Files) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	err := f.failDelete
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.Delete(ctx, path)
}

// Keys lists every stored key in order.
func (f *Files) Keys() []string {
	res, err := f.Memory.List(context.Background(), "", nil)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(res.Objects))
	for _, o := range res.Objects {
		keys = append(keys, o.Path)
	}
	sort.Strings(keys)
	return keys
}
