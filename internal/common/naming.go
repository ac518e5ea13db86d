package common

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Slugify turns a title into a file-name safe slug.
// Titles that slugify to nothing (only punctuation, empty) get a short random name
// so two such artifacts never overwrite each other.
func Slugify(title string) string {
	s := slug.Make(title)
	if s == "" {
		return "untitled-" + uuid.New().String()[:8]
	}
	return s
}
