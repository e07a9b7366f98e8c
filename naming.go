package zod2jsonschema

import "strings"

// Suffixes stripped by Normalize, longest first.
var nameSuffixes = []string{"Schema", "Zod"}

// Normalize derives the display name of a schema export: a trailing "Schema"
// or "Zod" is removed, then a leading "z" before an uppercase letter.
// UserSchema → User, ProductZod → Product, zAddress → Address.
// Names that would become empty are returned unchanged.
func Normalize(exportName string) string {
	name := exportName
	for _, s := range nameSuffixes {
		if strings.HasSuffix(name, s) {
			name = strings.TrimSuffix(name, s)
			break
		}
	}
	if hasZPrefix(name) {
		name = name[1:]
	}
	if name == "" {
		return exportName
	}
	return name
}

// MatchesNamingPattern reports whether an export name follows one of the
// recognized schema naming conventions.
func MatchesNamingPattern(name string) bool {
	return strings.HasSuffix(name, "Schema") ||
		strings.HasSuffix(name, "Zod") ||
		strings.HasSuffix(name, "Validator") ||
		hasZPrefix(name)
}

func hasZPrefix(name string) bool {
	return len(name) >= 2 && name[0] == 'z' && name[1] >= 'A' && name[1] <= 'Z'
}
