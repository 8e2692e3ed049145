package tinyfs

import (
	"fmt"

	"github.com/tinyfs/go-tinyfs/util/bitmap"
)

// Report summarizes the result of an offline consistency check, per the
// invariants of spec §3/§8: every inode/data-block bitmap bit must
// correspond to exactly one live reference reachable from the root.
type Report struct {
	ReachableInodes  int
	ReachableBlocks  int
	InodeBitmapCount int
	DataBitmapCount  int
	VolumeUUID       string
	FreeInodeRuns    []bitmap.Contiguous
	FreeDataRuns     []bitmap.Contiguous
	Problems         []string
}

// Clean reports whether the check found no discrepancies.
func (r *Report) Clean() bool {
	return len(r.Problems) == 0
}

// Fsck walks the tree from the root and cross-checks the two bitmaps
// against what is actually reachable. It is read-only: it never repairs
// anything, matching spec §7's "internal assertions ... are treated as
// programming faults" stance of surfacing problems rather than silently
// patching them.
func (fs *Filesystem) Fsck() (*Report, error) {
	report := &Report{
		InodeBitmapCount: fs.alloc.inodePopcount(),
		DataBitmapCount:  fs.alloc.dataPopcount(),
		VolumeUUID:       fs.sb.volumeUUID.String(),
	}

	seenInodes := map[uint32]bool{rootIno: true}
	seenBlocks := map[int32]bool{}

	root, err := fs.readInode(rootIno)
	if err != nil {
		return nil, fmt.Errorf("tinyfs: fsck: read root: %w", err)
	}
	if !root.valid {
		report.Problems = append(report.Problems, "root inode is not marked valid")
	}
	fs.countBlocks(root, seenBlocks)

	if err := fs.walk(root, seenInodes, seenBlocks, report); err != nil {
		return nil, err
	}

	report.ReachableInodes = len(seenInodes)
	report.ReachableBlocks = len(seenBlocks)
	report.FreeInodeRuns = fs.alloc.freeInodeRuns()
	report.FreeDataRuns = fs.alloc.freeDataRuns()

	if report.ReachableInodes != report.InodeBitmapCount {
		report.Problems = append(report.Problems, fmt.Sprintf(
			"inode bitmap popcount %d does not match %d reachable inodes", report.InodeBitmapCount, report.ReachableInodes))
		if err := fs.reportLeakedInodes(seenInodes, report); err != nil {
			return nil, err
		}
	}
	if report.ReachableBlocks != report.DataBitmapCount {
		report.Problems = append(report.Problems, fmt.Sprintf(
			"data bitmap popcount %d does not match %d reachable blocks", report.DataBitmapCount, report.ReachableBlocks))
		if err := fs.reportLeakedDataBlocks(seenBlocks, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// reportLeakedInodes names every inode bit that is set but was never reached
// from the root, i.e. a leaked inode the aggregate popcount check above
// already flagged as a mismatch.
func (fs *Filesystem) reportLeakedInodes(seen map[uint32]bool, report *Report) error {
	for ino := uint32(0); ino < fs.sb.maxInum; ino++ {
		set, err := fs.alloc.inodeBitSet(ino)
		if err != nil {
			return err
		}
		if set && !seen[ino] {
			report.Problems = append(report.Problems, fmt.Sprintf("inode %d is marked allocated but is not reachable", ino))
		}
	}
	return nil
}

// reportLeakedDataBlocks is reportLeakedInodes' counterpart for the
// data-region bitmap.
func (fs *Filesystem) reportLeakedDataBlocks(seen map[int32]bool, report *Report) error {
	for rel := int32(0); rel < int32(fs.sb.maxDnum); rel++ {
		set, err := fs.alloc.dataBitSet(rel)
		if err != nil {
			return err
		}
		if set && !seen[rel] {
			report.Problems = append(report.Problems, fmt.Sprintf("data block %d is marked allocated but is not reachable", rel))
		}
	}
	return nil
}

func (fs *Filesystem) countBlocks(in *inode, seen map[int32]bool) {
	for _, rel := range in.direct {
		if rel == unusedPtr {
			continue
		}
		seen[rel] = true
	}
}

func (fs *Filesystem) walk(dir *inode, seenInodes map[uint32]bool, seenBlocks map[int32]bool, report *Report) error {
	return fs.scanDirectory(dir, func(_ int32, _ int, d *dirent) (bool, error) {
		if !d.valid {
			return false, nil
		}
		if seenInodes[d.ino] {
			report.Problems = append(report.Problems, fmt.Sprintf("inode %d referenced more than once", d.ino))
			return false, nil
		}
		seenInodes[d.ino] = true

		child, err := fs.readInode(d.ino)
		if err != nil {
			return true, err
		}
		if !child.valid {
			report.Problems = append(report.Problems, fmt.Sprintf("entry %q references invalid inode %d", d.nameString(), d.ino))
			return false, nil
		}
		fs.countBlocks(child, seenBlocks)
		if child.isDir() {
			return false, fs.walk(child, seenInodes, seenBlocks, report)
		}
		return false, nil
	})
}
