package engine

import (
	"fmt"

	"github.com/minsql/minsql/pkg"
)

// Row maps column names to scalar values. A row is exclusively owned by
// its table; its position in the table is not a stable identifier.
type Row = pkg.Map[string, any]

// values of any type are normalized to a string key before bucketing
func formatIndexValue(v any) string {
	return fmt.Sprintf("%v", v)
}

// Index is a hash index over a single column: it maps a normalized value
// key to the positions of the rows currently holding that value, in
// insertion order.
type Index struct {
	Column  string
	buckets map[string][]int
}

func NewIndex(column string) *Index {
	return &Index{Column: column, buckets: map[string][]int{}}
}

// Add records a row position for a value. Null values are never indexed.
func (ix *Index) Add(value any, pos int) {
	if value == nil {
		return
	}
	key := formatIndexValue(value)
	ix.buckets[key] = append(ix.buckets[key], pos)
}

// Find returns a copy of the positions bucket for a value, so callers
// cannot corrupt index state through the returned slice.
func (ix *Index) Find(value any) []int {
	if value == nil {
		return nil
	}
	bucket, ok := ix.buckets[formatIndexValue(value)]
	if !ok {
		return nil
	}
	out := make([]int, len(bucket))
	copy(out, bucket)
	return out
}

// Remove drops one occurrence of pos from the value's bucket and deletes
// the bucket entirely once empty.
func (ix *Index) Remove(value any, pos int) {
	if value == nil {
		return
	}
	key := formatIndexValue(value)
	bucket := ix.buckets[key]
	for i, p := range bucket {
		if p == pos {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(ix.buckets, key)
		return
	}
	ix.buckets[key] = bucket
}

// Rebuild clears the index and repopulates it from a full row scan. This
// is the only safe recovery path after a delete shifts row positions.
func (ix *Index) Rebuild(rows []Row) {
	ix.buckets = map[string][]int{}
	for pos, row := range rows {
		ix.Add(row.Get(ix.Column), pos)
	}
}

// Entries exposes a copy of the full index contents, mainly so tests can
// compare live state against an independently rebuilt index.
func (ix *Index) Entries() map[string][]int {
	out := make(map[string][]int, len(ix.buckets))
	for k, bucket := range ix.buckets {
		positions := make([]int, len(bucket))
		copy(positions, bucket)
		out[k] = positions
	}
	return out
}
