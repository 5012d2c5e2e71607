package metascan

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/metascan/index"
	"github.com/hupe1980/metascan/internal/packer"
	"github.com/hupe1980/metascan/internal/visited"
	"github.com/hupe1980/metascan/model"
)

// pathSep joins path components; pathEnd terminates each packed path and,
// once more, the whole list.
const (
	pathSep byte = '/'
	pathEnd byte = 0
)

// pathItem is one branch of the backlink walk: the inode whose backlinks
// are expanded next, the components collected so far (leaf first), and the
// inodes already seen along this branch.
type pathItem struct {
	ino   uint64
	comps []string
	seen  *visited.Set
}

// InodePaths packs every root-to-inode hard-link path for ino into buf and
// returns the number of bytes written. One path is produced per hard link;
// none of them reflect symlinks.
//
// Paths are packed consecutively as '/'-joined components, each terminated
// by a NUL byte, with one final NUL after the last path. An inode with no
// links back to the root — the root itself, or a disconnected inode —
// produces exactly one NUL byte. Size buf with model.PathBufSizeHint.
//
// Path reconstruction intentionally reveals paths the caller might not be
// permitted to traverse; transports must deny it to callers lacking the
// elevated lookup capability before the engine runs.
//
// The walk is not serialized against concurrent link, unlink, or rename
// activity. Every returned path was valid at some instant during the call,
// and every path stable across the whole call is returned; paths mutated
// mid-call may or may not appear.
//
// If a packed path does not fit, the whole call fails with
// ErrBufferTooSmall — a truncated path list is never returned.
func (db *DB) InodePaths(ctx context.Context, ino uint64, buf []byte) (int, error) {
	w := packer.NewWriter(buf)

	root := &pathItem{ino: ino, seen: visited.New()}
	root.seen.Visit(ino)
	stack := []*pathItem{root}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := db.pace(ctx); err != nil {
			return 0, err
		}

		links, err := db.backlinks(it.ino)
		if err != nil {
			return 0, err
		}

		if len(links) == 0 {
			// Only the root terminates a chain; an empty component list
			// means the target itself is the root and contributes no path.
			if it.ino == model.RootIno && len(it.comps) > 0 {
				if err := emitPath(w, it.comps); err != nil {
					return 0, err
				}
			} else if it.ino != model.RootIno {
				db.logger.WithIno(it.ino).Debug("dropping disconnected branch")
			}
			continue
		}

		// Push in reverse so the lowest link ordinal is expanded first.
		for i := len(links) - 1; i >= 0; i-- {
			link := links[i]

			seen := it.seen
			if i > 0 {
				seen = it.seen.Clone()
			}
			if !seen.Visit(link.Parent) {
				db.logger.WithIno(it.ino).Warn("backlink cycle detected, dropping branch",
					"parent", link.Parent,
				)
				continue
			}

			comps := make([]string, len(it.comps)+1)
			copy(comps, it.comps)
			comps[len(it.comps)] = link.Name

			stack = append(stack, &pathItem{ino: link.Parent, comps: comps, seen: seen})
		}
	}

	if err := w.AppendByte(pathEnd); err != nil {
		return 0, ErrBufferTooSmall
	}

	db.logger.WithIno(ino).Debug("path reconstruction completed", "bytes", w.Len())
	return w.Len(), nil
}

// backlinks returns every hard-link backref of ino in ordinal order.
func (db *DB) backlinks(ino uint64) ([]model.Backlink, error) {
	start := model.BacklinkKey(ino, 0)
	end := model.BacklinkKey(ino, math.MaxUint64)

	var links []model.Backlink
	for {
		rec, err := db.snap.RangeNext(start, end)
		if errors.Is(err, index.ErrNotFound) {
			return links, nil
		}
		if err != nil {
			return nil, err
		}

		link, err := model.DecodeBacklink(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("backlink %s: %w", rec.Key, err)
		}
		links = append(links, link)

		next, ok := rec.Key.Next()
		if !ok {
			return links, nil
		}
		start = next
	}
}

// emitPath packs one completed path. Components were collected leaf first,
// so they are written in reverse to read root first.
func emitPath(w *packer.Writer, comps []string) error {
	for i := len(comps) - 1; i >= 0; i-- {
		if err := w.AppendString(comps[i]); err != nil {
			return ErrBufferTooSmall
		}
		if i > 0 {
			if err := w.AppendByte(pathSep); err != nil {
				return ErrBufferTooSmall
			}
		}
	}
	if err := w.AppendByte(pathEnd); err != nil {
		return ErrBufferTooSmall
	}
	return nil
}
