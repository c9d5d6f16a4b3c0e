// Package storage is the root of storedb's disk-based storage engine.
//
// Data is organised into fixed-size pages that are read and written as
// atomic units. Higher-level sub-packages build on this foundation to
// provide heap file storage and the B+tree index.
//
// # Sub-packages
//
//   - [storedb/pkg/storage/page]        – Page interface, page descriptors
//     and the shared file I/O used by the index and heap layers.
//   - [storedb/pkg/storage/bufferpool]  – Read-through, write-through page
//     cache in front of a file; it has no pinning, so any cached page can be
//     evicted and is re-read from its file on the next access.
//   - [storedb/pkg/storage/heap]        – Heap file: an unordered collection
//     of pages that stores fixed-width rows behind the record-file
//     interface the executors consume.
//   - [storedb/pkg/storage/index]       – Index/IndexEntry interfaces shared
//     by every index implementation.
//   - [storedb/pkg/storage/index/btree] – The clustered/secondary B+tree:
//     node layout, split/coalesce/redistribute, range iteration.
//
// # Page layout
//
// Every page is exactly page.PageSize bytes. A page's identity
// (file id + page number) is carried by a page.PageDescriptor rather than a
// raw integer, so callers cannot accidentally address a page in the wrong
// file.
package storage
