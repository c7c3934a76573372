package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

var (
	// ErrNameCollision is returned when two units would share a name
	ErrNameCollision = errors.New("migration name collision")
	// ErrPlannerState is returned when the planner is used out of order
	ErrPlannerState = errors.New("invalid planner state")
	// ErrInvalidTableName is returned for table names that cannot be part of
	// an artifact file name
	ErrInvalidTableName = errors.New("invalid table name")
)

// State is the phase of a planner run
type State int

const (
	StateIdle State = iota
	StateCreatingTables
	StateAddingForeignKeys
	StateDone
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreatingTables:
		return "creating_tables"
	case StateAddingForeignKeys:
		return "adding_foreign_keys"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Warning describes a constraint left out of the plan
type Warning struct {
	Table           string
	Constraint      string
	ReferencedTable string
	Message         string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s.%s: %s", w.Table, w.Constraint, w.Message)
}

// Plan is the result of a finished run
type Plan struct {
	// Units in sequence order: every create unit, then every foreign keys unit
	Units []Unit
	// Empty lists the tables offered with no columns
	Empty    []string
	Warnings []Warning
}

// Planner schedules units in two passes. Tables are offered to the create
// path one by one; Finish then runs the foreign keys pass over the same tables
// in the same order. Sequences come from a single clock, so a planner must
// not be shared between goroutines.
type Planner struct {
	clock   *Clock
	state   State
	names   map[string]string
	created map[string]bool
	tables  []schema.Table
	plan    Plan
}

// NewPlanner returns an idle planner whose first unit gets start
func NewPlanner(start Sequence) *Planner {
	return &Planner{
		clock:   NewClock(start),
		names:   make(map[string]string),
		created: make(map[string]bool),
	}
}

// State returns the current state
func (p *Planner) State() State {
	return p.state
}

// AddTable offers a table to the create path
func (p *Planner) AddTable(table schema.Table) error {
	switch p.state {
	case StateIdle:
		p.state = StateCreatingTables
	case StateCreatingTables:
	default:
		return fmt.Errorf("%w: cannot add table %s while %s", ErrPlannerState, table.Name, p.state)
	}

	up, down, ok := SynthesizeCreate(table)
	if !ok {
		p.plan.Empty = append(p.plan.Empty, table.Name)
		return nil
	}

	if err := p.emit(CreatePath, table.Name, up, down); err != nil {
		return err
	}

	p.created[table.Name] = true
	p.tables = append(p.tables, table)
	return nil
}

// Finish runs the foreign keys pass and returns the plan. Constraints
// referencing a table without a create unit in this plan are dropped with a
// warning.
func (p *Planner) Finish() (*Plan, error) {
	if p.state != StateIdle && p.state != StateCreatingTables {
		return nil, fmt.Errorf("%w: cannot finish while %s", ErrPlannerState, p.state)
	}
	p.state = StateAddingForeignKeys

	for _, table := range p.tables {
		fks := p.resolvable(table)
		up, down, ok := SynthesizeForeignKeys(table.Name, fks)
		if !ok {
			continue
		}
		if err := p.emit(ForeignKeysPath, table.Name, up, down); err != nil {
			return nil, err
		}
	}

	p.state = StateDone
	plan := p.plan
	return &plan, nil
}

func (p *Planner) resolvable(table schema.Table) []schema.ForeignKey {
	var fks []schema.ForeignKey
	for _, fk := range table.ForeignKeys {
		if !p.created[fk.ReferencedTable] {
			p.plan.Warnings = append(p.plan.Warnings, Warning{
				Table:           table.Name,
				Constraint:      fk.Name,
				ReferencedTable: fk.ReferencedTable,
				Message:         fmt.Sprintf("referenced table %s is not part of this run", fk.ReferencedTable),
			})
			continue
		}
		fks = append(fks, fk)
	}
	return fks
}

// emit names the unit and stamps it with the next tick. Names are compared
// case-insensitively since artifacts may land on a case-insensitive
// filesystem.
func (p *Planner) emit(path Path, table string, up, down []Operation) error {
	if err := validateTableName(table); err != nil {
		return err
	}
	name := path.UnitName(table)
	key := strings.ToLower(name)
	if prev, ok := p.names[key]; ok {
		return fmt.Errorf("%w: %s and %s", ErrNameCollision, prev, name)
	}

	seq, err := p.clock.Next()
	if err != nil {
		return fmt.Errorf("failed to sequence %s: %w", name, err)
	}
	p.names[key] = name

	p.plan.Units = append(p.plan.Units, Unit{
		Name:     name,
		Sequence: seq,
		Path:     path,
		Table:    table,
		Up:       up,
		Down:     down,
	})
	return nil
}

// Schedule runs a planner over tables in order
func Schedule(start Sequence, tables []schema.Table) (*Plan, error) {
	p := NewPlanner(start)
	for _, table := range tables {
		if err := p.AddTable(table); err != nil {
			return nil, err
		}
	}
	return p.Finish()
}

func validateTableName(table string) error {
	if table == "" || strings.Contains(table, "..") || strings.ContainsAny(table, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}
