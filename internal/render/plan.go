package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/migrategen/internal/migration"
	"github.com/tordrt/migrategen/internal/schema"
)

// PlanPrinter writes a plan as compact text, for dry runs
type PlanPrinter struct {
	writer io.Writer
}

// NewPlanPrinter creates a new plan printer
func NewPlanPrinter(w io.Writer) *PlanPrinter {
	return &PlanPrinter{writer: w}
}

// Print writes every unit of the plan followed by its warnings
func (p *PlanPrinter) Print(plan *migration.Plan) error {
	for i := range plan.Units {
		if i > 0 {
			_, _ = fmt.Fprintln(p.writer)
		}
		p.printUnit(&plan.Units[i])
	}

	if len(plan.Empty) > 0 {
		_, _ = fmt.Fprintln(p.writer)
		_, _ = fmt.Fprintf(p.writer, "EMPTY %s\n", strings.Join(plan.Empty, ", "))
	}

	for _, w := range plan.Warnings {
		_, _ = fmt.Fprintf(p.writer, "WARNING %s\n", w)
	}
	return nil
}

func (p *PlanPrinter) printUnit(u *migration.Unit) {
	_, _ = fmt.Fprintf(p.writer, "%s %s\n", u.Sequence, u.Name)
	for _, op := range u.Up {
		_, _ = fmt.Fprintf(p.writer, "  + %s\n", describe(op))
	}
	for _, op := range u.Down {
		_, _ = fmt.Fprintf(p.writer, "  - %s\n", describe(op))
	}
}

func describe(op migration.Operation) string {
	switch o := op.(type) {
	case migration.AddColumn:
		return "column " + describeColumn(o.Column)
	case migration.AddIndex:
		return fmt.Sprintf("%s %s (%s)", o.Index.Kind, o.Index.Name, strings.Join(o.Index.Columns, ", "))
	case migration.AddForeignKey:
		fk := o.ForeignKey
		s := fmt.Sprintf("foreign %s (%s) → %s", fk.Name, strings.Join(fk.Columns, ", "), fk.ReferencedTable)
		if len(fk.ReferencedColumns) > 0 {
			s += fmt.Sprintf("(%s)", strings.Join(fk.ReferencedColumns, ", "))
		}
		if fk.OnDelete != schema.ActionNone {
			s += " ON DELETE " + string(fk.OnDelete)
		}
		if fk.OnUpdate != schema.ActionNone {
			s += " ON UPDATE " + string(fk.OnUpdate)
		}
		return s
	case migration.DropTable:
		return "drop table " + o.Table
	case migration.DropForeignKey:
		return "drop foreign " + o.Name
	default:
		return op.Type().String()
	}
}

func describeColumn(col schema.Column) string {
	parts := []string{col.Name + ":"}

	typeStr := col.Kind.String()
	switch {
	case col.Kind == schema.KindRaw:
		typeStr = fmt.Sprintf("raw(%s)", col.RawType)
	case len(col.EnumValues) > 0:
		typeStr = fmt.Sprintf("%s (%s)", typeStr, strings.Join(col.EnumValues, "|"))
	case col.Length > 0:
		typeStr = fmt.Sprintf("%s(%d)", typeStr, col.Length)
	case col.Precision > 0:
		typeStr = fmt.Sprintf("%s(%d,%d)", typeStr, col.Precision, col.Scale)
	}
	parts = append(parts, typeStr)

	if col.Unsigned {
		parts = append(parts, "UNSIGNED")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	return strings.Join(parts, " ")
}
