// Package clonekey names the generated copies of repeated elements and answers
// ancestry questions about those names.
//
// A clone of "panel-3" at index 2 is "panel-3-clone-2". Elements nested inside
// a cloned container are scoped with a path separator, so the copy of
// "panel-4" inside "row-1-clone-1" is "row-1-clone-1/panel-4".
package clonekey

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	cloneSeparator = "-clone-"
	pathSeparator  = "/"
)

var cloneSuffix = regexp.MustCompile(`-clone-(\d+)$`)

// GetCloneKey returns the key of the index-th generated copy of key.
func GetCloneKey(key string, index int) string {
	return key + cloneSeparator + strconv.Itoa(index)
}

// JoinCloneKeys scopes childKey under a cloned parent.
func JoinCloneKeys(parentCloneKey, childKey string) string {
	if parentCloneKey == "" {
		return childKey
	}
	return parentCloneKey + pathSeparator + childKey
}

// GetLastKeyFromClone returns the innermost segment of a scoped key.
func GetLastKeyFromClone(key string) string {
	if i := strings.LastIndex(key, pathSeparator); i >= 0 {
		return key[i+1:]
	}
	return key
}

// IsClonedKey reports whether key itself names a generated copy.
func IsClonedKey(key string) bool {
	return cloneSuffix.MatchString(GetLastKeyFromClone(key))
}

// GetCloneIndex returns the repeat index encoded in key, 0 for non-clones.
func GetCloneIndex(key string) int {
	m := cloneSuffix.FindStringSubmatch(GetLastKeyFromClone(key))
	if m == nil {
		return 0
	}
	i, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return i
}

// GetOriginalKey strips every clone scope and suffix from key.
func GetOriginalKey(key string) string {
	return cloneSuffix.ReplaceAllString(GetLastKeyFromClone(key), "")
}

// IsClonedKeyOf reports whether key is a generated copy of ancestorKey, either
// directly or because it sits inside a cloned copy of ancestorKey.
func IsClonedKeyOf(key, ancestorKey string) bool {
	if key == ancestorKey {
		return false
	}
	for _, segment := range strings.Split(key, pathSeparator) {
		if cloneSuffix.MatchString(segment) && cloneSuffix.ReplaceAllString(segment, "") == ancestorKey {
			return true
		}
	}
	return false
}

// IsInCloneChain reports whether key or any of its scopes is a generated copy.
func IsInCloneChain(key string) bool {
	for _, segment := range strings.Split(key, pathSeparator) {
		if cloneSuffix.MatchString(segment) {
			return true
		}
	}
	return false
}
