package tinyfs

import "strings"

// resolve walks path one "/"-separated component at a time starting from
// the root inode, per spec §4.6. The root path "/" returns inode 0 without
// any lookup. A not-found error at any step surfaces unchanged.
func (fs *Filesystem) resolve(path string) (*inode, error) {
	if path == "/" || path == "" {
		return fs.readInode(rootIno)
	}
	components := splitPath(path)
	cur, err := fs.readInode(rootIno)
	if err != nil {
		return nil, err
	}
	for _, name := range components {
		if !cur.isDir() {
			return nil, ErrNotDirectory
		}
		entry, err := fs.dirLookupRequired(cur, name)
		if err != nil {
			return nil, err
		}
		cur, err = fs.readInode(entry.ino)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// resolveParent resolves the directory inode containing the final path
// component, and returns that component's name alongside it. Used by
// operations that need to add or remove an entry in the parent (mkdir,
// create, rmdir, unlink).
func (fs *Filesystem) resolveParent(path string) (parent *inode, name string, err error) {
	components := splitPath(path)
	if len(components) == 0 {
		return nil, "", ErrInvalidName
	}
	name = components[len(components)-1]
	parentPath := "/" + strings.Join(components[:len(components)-1], "/")
	parent, err = fs.resolve(parentPath)
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir() {
		return nil, "", ErrNotDirectory
	}
	return parent, name, nil
}

// splitPath breaks a leading-slash, "/"-separated path into its non-empty
// components.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
