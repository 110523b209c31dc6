// naming.go - Output file names and their parsing.

package generator

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultPrefix starts every generated file name.
const DefaultPrefix = "storycard"

// Filename returns "<prefix>_<stamp>_<index>.png" with a three-digit,
// zero-padded index. Names are unique within a batch because the stamp is
// shared and the index is not.
func Filename(prefix string, stamp int64, index int) string {
	return fmt.Sprintf("%s_%d_%03d.png", prefix, stamp, index)
}

var filenameRE = regexp.MustCompile(`^(.+)_(\d+)_(\d{3,})\.png$`)

// ParseFilename splits a name produced by Filename.
func ParseFilename(name string) (prefix string, stamp int64, index int, ok bool) {
	m := filenameRE.FindStringSubmatch(name)
	if m == nil {
		return "", 0, 0, false
	}
	stamp, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	index, err = strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, false
	}
	return m[1], stamp, index, true
}
