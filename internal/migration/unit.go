package migration

import (
	"fmt"
	"strings"
)

// Path selects one of the two synthesis paths
type Path int

const (
	CreatePath Path = iota
	ForeignKeysPath
)

// String returns the path name used in plans and logs
func (p Path) String() string {
	switch p {
	case CreatePath:
		return "create"
	case ForeignKeysPath:
		return "add_foreign_keys"
	default:
		return "unknown"
	}
}

// Verb is the unit name prefix of the path
func (p Path) Verb() string {
	switch p {
	case CreatePath:
		return "create"
	case ForeignKeysPath:
		return "add_foreign_keys_to"
	default:
		return "unknown"
	}
}

// UnitName returns the name of the unit the path produces for a table,
// e.g. create_users_table or add_foreign_keys_to_posts_table
func (p Path) UnitName(table string) string {
	return fmt.Sprintf("%s_%s_table", p.Verb(), table)
}

// Unit is one replayable migration: a named, sequenced pair of operation
// lists. Down undoes Up.
type Unit struct {
	Name     string
	Sequence Sequence
	Path     Path
	Table    string
	Up       []Operation
	Down     []Operation
}

// ClassName returns the CamelCase form of the unit name,
// e.g. create_users_table becomes CreateUsersTable
func (u *Unit) ClassName() string {
	return ClassName(u.Name)
}

// ClassName converts a snake_case name to CamelCase. Characters other than
// letters and digits separate words.
func ClassName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})

	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// FileName returns the artifact name without extension, <sequence>_<name>
func (u *Unit) FileName() string {
	return fmt.Sprintf("%s_%s", u.Sequence, u.Name)
}
