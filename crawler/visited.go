package crawler

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// VisitedTracker is the scheduler's seen-set. A disk-backed bloom filter
// sits in front of an authoritative in-memory set: the filter never has
// false negatives, so a "not present" answer is trusted outright and skips
// the exact lookup entirely; a "maybe present" answer falls through to the
// exact set to resolve the bloom filter's false positives. This keeps the
// "no URL fetched twice" invariant exact regardless of filter load factor.
// The filter's shortcut applies to URLs never seen before; a URL that was
// already seen always reaches the exact-set lookup. The filter is copied
// into a memory-mapped temp file every 1000 insertions and on Close.
type VisitedTracker struct {
	mu        sync.Mutex
	filter    *bloom.BloomFilter
	exact     map[string]struct{}
	file      *os.File
	mmap      mmap.MMap
	tmpPath   string
	count     uint64
	syncEvery uint64
	lastErr   error
}

// NewVisitedTracker creates a new disk-backed visited URL tracker, sized
// for 100,000 URLs at a 0.1% false-positive rate before the bloom filter's
// hash table needs resizing (resizing never happens; false positives past
// that point just mean more exact-set fallbacks, not incorrect results).
func NewVisitedTracker() (*VisitedTracker, error) {
	filter := bloom.NewWithEstimates(100000, 0.001)

	tmpDir := os.TempDir()
	tmpFile, err := os.CreateTemp(tmpDir, "sitemapgen-visited-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	filterSize := filter.Cap()
	if err := tmpFile.Truncate(int64(filterSize)); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("truncate temp file: %w", err)
	}

	mapped, err := mmap.MapRegion(tmpFile, int(filterSize), mmap.RDWR, 0, 0)
	if err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("mmap temp file: %w", err)
	}

	data, err := filter.MarshalBinary()
	if err != nil {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) > len(mapped) {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("filter data (%d) exceeds mmap size (%d)", len(data), len(mapped))
	}
	copy(mapped, data)

	return &VisitedTracker{
		filter:    filter,
		exact:     make(map[string]struct{}),
		file:      tmpFile,
		mmap:      mapped,
		tmpPath:   tmpPath,
		syncEvery: 1000,
	}, nil
}

// VisitIfNew atomically checks whether url has been seen before and, if
// not, records it. Returns true iff url was new.
func (v *VisitedTracker) VisitIfNew(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.filter.TestString(url) {
		v.markLocked(url)
		return true
	}

	if _, seen := v.exact[url]; seen {
		return false
	}
	// Bloom filter false positive: url was never actually added.
	v.markLocked(url)
	return true
}

func (v *VisitedTracker) markLocked(url string) {
	v.filter.AddString(url)
	v.exact[url] = struct{}{}
	v.count++

	if v.count >= v.syncEvery {
		if err := v.syncLocked(); err != nil {
			v.lastErr = err
		}
	}
}

// syncLocked persists the bloom filter to disk. Must be called with mu held.
func (v *VisitedTracker) syncLocked() error {
	data, err := v.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) <= len(v.mmap) {
		copy(v.mmap, data)
	}
	if flushErr := v.mmap.Flush(); flushErr != nil {
		return fmt.Errorf("flush mmap: %w", flushErr)
	}
	v.count = 0
	return nil
}

// Close syncs any pending data and cleans up resources.
func (v *VisitedTracker) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var errs []error

	if v.lastErr != nil {
		errs = append(errs, v.lastErr)
	}

	if v.mmap != nil {
		if v.count > 0 {
			if syncErr := v.syncLocked(); syncErr != nil {
				errs = append(errs, syncErr)
			}
		}
		if err := v.mmap.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		v.mmap = nil
	}

	if v.file != nil {
		if err := v.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
		v.file = nil
	}

	if v.tmpPath != "" {
		if err := os.Remove(v.tmpPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file: %w", err))
		}
		v.tmpPath = ""
	}

	if len(errs) > 0 {
		return fmt.Errorf("close visited tracker: %w", errors.Join(errs...))
	}
	return nil
}

// LastError returns the last error encountered during a periodic disk sync.
func (v *VisitedTracker) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}
