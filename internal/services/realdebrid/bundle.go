package realdebrid

import (
	"context"
	"sort"
)

// Bundle is a resolved subset of a torrent's files that satisfies the
// active filters and a count or match constraint. A nil bundle means no
// qualifying subset exists; an empty subset is never returned.
type Bundle struct {
	Hash    string
	FileIDs []string
}

// BundleWithFileCount resolves a bundle of exactly count files passing all
// filters, or nil when no cached variant qualifies
func (c *Client) BundleWithFileCount(ctx context.Context, hash string, count int, filters []FileFilter) (*Bundle, error) {
	return c.resolveBundle(ctx, hash, filters, func(n int) bool { return n == count })
}

// BundleWithFileCountAtLeast resolves a bundle of at least minCount files
// passing all filters, or nil when no cached variant qualifies
func (c *Client) BundleWithFileCountAtLeast(ctx context.Context, hash string, minCount int, filters []FileFilter) (*Bundle, error) {
	return c.resolveBundle(ctx, hash, filters, func(n int) bool { return n >= minCount })
}

// BundleWithFileMatch resolves a single-file bundle for the best file
// passing all filters inside any cached variant, with no constraint on the
// variant's overall size. The largest matching file wins.
func (c *Client) BundleWithFileMatch(ctx context.Context, hash string, filters []FileFilter) (*Bundle, error) {
	avail, err := c.getAvailability(ctx, hash)
	if err != nil {
		return nil, err
	}

	var bestID string
	var bestSize int64 = -1
	for _, providers := range avail {
		for _, variants := range providers {
			for _, variant := range variants {
				for fileID, file := range variant {
					if !passesAll(file.Filename, filters) {
						continue
					}
					if file.Filesize > bestSize {
						bestID = fileID
						bestSize = file.Filesize
					}
				}
			}
		}
	}

	if bestID == "" {
		return nil, nil
	}
	return &Bundle{Hash: hash, FileIDs: []string{bestID}}, nil
}

func (c *Client) resolveBundle(ctx context.Context, hash string, filters []FileFilter, accept func(int) bool) (*Bundle, error) {
	avail, err := c.getAvailability(ctx, hash)
	if err != nil {
		return nil, err
	}

	for _, providers := range avail {
		for _, variants := range providers {
			for _, variant := range variants {
				var fileIDs []string
				for fileID, file := range variant {
					if passesAll(file.Filename, filters) {
						fileIDs = append(fileIDs, fileID)
					}
				}
				// An empty subset is indistinguishable from no subset
				if len(fileIDs) == 0 || !accept(len(fileIDs)) {
					continue
				}
				sort.Strings(fileIDs)
				return &Bundle{Hash: hash, FileIDs: fileIDs}, nil
			}
		}
	}
	return nil, nil
}
