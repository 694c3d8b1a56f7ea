// Package route holds the console's browser paths.
package route

import (
	"strconv"
	"strings"
)

// List is the path of the user list screen.
const List = "/"

// detailPrefix prefixes the path of the user detail screen.
const detailPrefix = "/user/"

// Detail returns the path of the detail screen for id.
func Detail(id int64) string {
	return detailPrefix + strconv.FormatInt(id, 10)
}

// ParseDetailID parses the id segment of a detail route.
func ParseDetailID(segment string) (int64, bool) {
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Resolve maps any path to the route the console serves for it:
// "/" and "/user/{int}" are kept, anything else resolves to List.
func Resolve(path string) string {
	if path == List {
		return List
	}
	if rest, ok := strings.CutPrefix(path, detailPrefix); ok {
		if id, ok := ParseDetailID(rest); ok {
			return Detail(id)
		}
	}
	return List
}

// Navigator moves the browser to another route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }
