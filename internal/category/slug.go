package category

import "strings"

// Slugify derives the URL identifier from a category name: lowercase, every
// run of non-alphanumerics collapsed to a single hyphen, no leading or
// trailing hyphen. The result is a pure function of the name.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SlugResolvable reports whether the slug carries at least one letter. An
// all-digit slug would always resolve as a store id, and an empty one is not
// addressable at all, so neither may be stored.
func SlugResolvable(slug string) bool {
	for _, r := range slug {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}
