package scene

import "strings"

// ExtractFolderPath returns everything before the last path separator.
// A path without a separator is returned unchanged.
func ExtractFolderPath(filepath string) string {
	i := strings.LastIndexAny(filepath, "/\\")
	if i < 0 {
		return filepath
	}
	return filepath[:i]
}

// RemovePrefixPath strips any directory prefix from filename.
func RemovePrefixPath(filename string) string {
	i := strings.LastIndexAny(filename, "/\\")
	if i < 0 {
		return filename
	}
	return filename[i+1:]
}

// Extension returns the text after the last dot, or the whole name if there
// is none.
func Extension(name string) string {
	return name[strings.LastIndexByte(name, '.')+1:]
}
