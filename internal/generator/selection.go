package generator

import "strings"

// SelectTables returns the tables to generate: requested when non-empty,
// otherwise available. Duplicates keep their first position, and anything
// in ignore or equal to bookkeeping is left out even if requested.
func SelectTables(available, requested, ignore []string, bookkeeping string) []string {
	source := available
	if len(requested) > 0 {
		source = requested
	}

	skip := make(map[string]bool, len(ignore)+1)
	for _, name := range ignore {
		skip[strings.TrimSpace(name)] = true
	}
	if bookkeeping != "" {
		skip[bookkeeping] = true
	}

	selected := make([]string, 0, len(source))
	seen := make(map[string]bool, len(source))
	for _, name := range source {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] || skip[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, name)
	}

	return selected
}

// ParseTableList splits a comma separated list, trimming whitespace and
// dropping empty entries
func ParseTableList(list string) []string {
	var tables []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			tables = append(tables, name)
		}
	}
	return tables
}
