package detect

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Classes is the ordered class-name table detections are labeled from. The
// pipeline only ever reads it; index i holds the name of class id i.
type Classes struct {
	names []string
}

// NewClasses returns a class table over the given names.
func NewClasses(names []string) Classes {
	return Classes{names: names}
}

// LoadClassesFile reads a class table from a file holding one name per line,
// ordered by class id.
func LoadClassesFile(path string) (_ Classes, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Classes{}, errors.Wrapf(err, "could not open class names file %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Classes{}, errors.Wrapf(err, "could not read class names from %q", path)
	}
	return NewClasses(names), nil
}

// Loaded reports whether the table holds any names.
func (c Classes) Loaded() bool {
	return len(c.names) > 0
}

// Len returns the number of names in the table.
func (c Classes) Len() int {
	return len(c.names)
}

// Name returns the name for a class id and whether the id is in range.
func (c Classes) Name(id int) (string, bool) {
	if id < 0 || id >= len(c.names) {
		return "", false
	}
	return c.names[id], true
}
