package overlay

import "errors"

var (
	// ErrMultipleRoots indicates the Directory table's parent-pointer
	// graph does not have exactly one root (a Directory whose parent is
	// null or self-referential).
	ErrMultipleRoots = errors.New("overlay: directory table does not have exactly one root")
	// ErrCyclicDirectoryGraph indicates following Directory parent
	// pointers from some entry never reaches a root.
	ErrCyclicDirectoryGraph = errors.New("overlay: cyclic directory graph")
	// ErrComponentWithoutDirectory indicates a Component's Directory_
	// does not resolve to a known Directory. Fatal: a Component must
	// belong to a directory.
	ErrComponentWithoutDirectory = errors.New("overlay: component references unknown directory")
	// ErrFileWithoutComponent indicates a File's Component_ does not
	// resolve to a known Component. Fatal: per spec.md §4.7, a File
	// without a resolvable Component is a required relationship.
	ErrFileWithoutComponent = errors.New("overlay: file references unknown component")
	// ErrFileExceedsMedia indicates a Media table is present but none
	// of its rows has LastSequence >= the File's Sequence. A File's
	// sequence exceeding every disk's range signals a corrupt or
	// incomplete cabinet layout, distinct from the ordinary case of no
	// Media table at all (valid for unpacked files, §4.7 step 3).
	ErrFileExceedsMedia = errors.New("overlay: file sequence exceeds every media's last sequence")
)
