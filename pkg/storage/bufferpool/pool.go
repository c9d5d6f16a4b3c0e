// Package bufferpool caches recently touched pages in memory so repeated
// reads of the same page (a hot index root, a heap page under a tight
// insert/delete loop) don't round-trip through the OS file each time.
package bufferpool

import (
	"fmt"
	"storedb/pkg/dblog"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// defaultMaxCost bounds the pool at roughly 2000 pages worth of cached
// data; PageSize-denominated so the bound tracks the page layer rather
// than an arbitrary byte count.
const defaultMaxCost = int64(2000) * int64(page.PageSize)

// Pool is a read-through, write-through cache in front of a page.DbFile.
// It never owns correctness: a cache miss or eviction always falls back to
// the underlying file, so a Pool can be dropped and rebuilt at any time
// without losing data.
type Pool struct {
	cache *ristretto.Cache[string, page.Page]
}

// New builds a Pool with a fixed memory budget. Cost is tracked in bytes
// using each cached page's serialized size.
func New() (*Pool, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, page.Page]{
		NumCounters: defaultMaxCost / int64(page.PageSize) * 10,
		MaxCost:     defaultMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing page cache: %w", err)
	}
	return &Pool{cache: cache}, nil
}

func cacheKey(file page.DbFile, pageID primitives.PageID) string {
	return fmt.Sprintf("%d:%s", file.GetID(), pageID.String())
}

// Get returns the requested page, consulting the cache before falling
// through to file.ReadPage on a miss.
func (p *Pool) Get(file page.DbFile, pageID primitives.PageID) (page.Page, error) {
	key := cacheKey(file, pageID)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	loaded, err := file.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, loaded, int64(len(loaded.GetPageData())))
	return loaded, nil
}

// Put writes a page through to file and refreshes the cached copy so a
// subsequent Get in the same process sees the write immediately rather
// than a stale cached version or an eviction-triggered re-read.
func (p *Pool) Put(file page.DbFile, pg page.Page) error {
	if err := file.WritePage(pg); err != nil {
		return err
	}
	key := cacheKey(file, pg.GetID())
	p.cache.Set(key, pg, int64(len(pg.GetPageData())))
	p.cache.Wait()
	return nil
}

// Invalidate drops any cached copy of a page, used when a page is deleted
// or otherwise made stale through a path that doesn't go through Put.
func (p *Pool) Invalidate(file page.DbFile, pageID primitives.PageID) {
	p.cache.Del(cacheKey(file, pageID))
}

var (
	shared     *Pool
	sharedOnce sync.Once
)

// Shared returns a process-wide pool, lazily constructed on first use. The
// execution package's mutating operators share one pool across every
// table so a hot page stays cached across statements within a run.
func Shared() *Pool {
	sharedOnce.Do(func() {
		pool, err := New()
		if err != nil {
			dblog.Get().Sugar().Errorf("buffer pool initialization failed, falling back to uncached reads: %v", err)
			return
		}
		shared = pool
	})
	return shared
}
