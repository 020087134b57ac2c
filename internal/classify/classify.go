// Package classify maps file names to destination categories using a fixed
// extension table.
package classify

import (
	"slices"
	"strings"
)

// Category names a destination subdirectory of the watch root.
type Category string

const (
	Documents Category = "Documents"
	Images    Category = "Images"
	Music     Category = "Music"
	Videos    Category = "Videos"
	Software  Category = "Software"
	Others    Category = "Others"
)

var table = map[Category][]string{
	Documents: {"pdf", "docx", "txt", "xlsx"},
	Images:    {"jpg", "jpeg", "png", "gif", "webp"},
	Music:     {"mp3", "wav"},
	Videos:    {"mp4", "mkv"},
	Software:  {"exe", "msi"},
}

var order = []Category{Documents, Images, Music, Videos, Software, Others}

var byExtension = func() map[string]Category {
	index := make(map[string]Category)
	for category, exts := range table {
		for _, ext := range exts {
			index[ext] = category
		}
	}
	return index
}()

// Classify returns the category for fileName based on the text after its
// last dot, compared case-insensitively. Names without a usable extension
// land in Others.
func Classify(fileName string) Category {
	ext := Extension(fileName)
	if ext == "" {
		return Others
	}
	if category, ok := byExtension[strings.ToLower(ext)]; ok {
		return category
	}
	return Others
}

// Extension returns the text after the last dot of fileName, or "" when the
// name has no dot, ends in a dot, or only has a leading dot (".bashrc").
func Extension(fileName string) string {
	idx := strings.LastIndexByte(fileName, '.')
	if idx <= 0 || idx == len(fileName)-1 {
		return ""
	}
	return fileName[idx+1:]
}

// Extensions lists the recognized extensions for category in table order.
// Others has none.
func Extensions(category Category) []string {
	return slices.Clone(table[category])
}

// All returns every category in display order, Others last.
func All() []Category {
	return slices.Clone(order)
}

// Valid reports whether name is one of the known categories.
func Valid(name string) bool {
	return slices.Contains(order, Category(name))
}
