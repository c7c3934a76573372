package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/migrategen/internal/migration"
	"github.com/tordrt/migrategen/internal/schema"
)

func strPtr(s string) *string { return &s }

func samplePlan(t *testing.T) *migration.Plan {
	t.Helper()

	users := schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Kind: schema.KindBigInteger, AutoIncrement: true, Unsigned: true},
			{Name: "email", Kind: schema.KindString, Length: 191},
			{Name: "status", Kind: schema.KindEnum, EnumValues: []string{"active", "banned"}, DefaultValue: strPtr("active")},
			{Name: "bio", Kind: schema.KindText, Nullable: true},
		},
		Indexes: []schema.Index{
			{Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: []string{"id"}},
			{Name: "users_email_unique", Kind: schema.IndexUnique, Columns: []string{"email"}},
		},
	}
	posts := schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Kind: schema.KindInteger, AutoIncrement: true},
			{Name: "user_id", Kind: schema.KindBigInteger, Unsigned: true},
			{Name: "published", Kind: schema.KindBoolean, DefaultValue: strPtr("0")},
		},
		Indexes: []schema.Index{
			{Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: []string{"id"}},
			{Name: "posts_user_id_foreign", Kind: schema.IndexPlain, Columns: []string{"user_id"}},
		},
		ForeignKeys: []schema.ForeignKey{{
			Name: "posts_user_id_foreign", Columns: []string{"user_id"},
			ReferencedTable: "users", ReferencedColumns: []string{"id"},
			OnDelete: schema.ActionCascade, OnUpdate: schema.ActionNoAction,
		}},
	}

	plan, err := migration.Schedule(20240101000000, []schema.Table{users, posts})
	require.NoError(t, err)
	require.Len(t, plan.Units, 3)
	return plan
}

func renderUnit(t *testing.T, dialect schema.Dialect, u *migration.Unit) (string, string) {
	t.Helper()

	r, err := NewSQLRenderer(dialect)
	require.NoError(t, err)

	up, err := r.Render(u.Up)
	require.NoError(t, err)
	down, err := r.Render(u.Down)
	require.NoError(t, err)
	return up, down
}

func TestRenderMySQL(t *testing.T) {
	plan := samplePlan(t)

	up, down := renderUnit(t, schema.DialectMySQL, &plan.Units[0])
	assert.Equal(t, "CREATE TABLE `users` (\n"+
		"  `id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,\n"+
		"  `email` VARCHAR(191) NOT NULL,\n"+
		"  `status` ENUM('active','banned') NOT NULL DEFAULT 'active',\n"+
		"  `bio` TEXT,\n"+
		"  PRIMARY KEY (`id`)\n"+
		");\n"+
		"CREATE UNIQUE INDEX `users_email_unique` ON `users` (`email`);", up)
	assert.Equal(t, "DROP TABLE `users`;", down)

	up, down = renderUnit(t, schema.DialectMySQL, &plan.Units[2])
	assert.Equal(t, "ALTER TABLE `posts` ADD CONSTRAINT `posts_user_id_foreign` FOREIGN KEY (`user_id`) "+
		"REFERENCES `users` (`id`) ON DELETE CASCADE;", up)
	assert.Equal(t, "ALTER TABLE `posts` DROP FOREIGN KEY `posts_user_id_foreign`;", down)
}

func TestRenderPostgres(t *testing.T) {
	plan := samplePlan(t)

	up, _ := renderUnit(t, schema.DialectPostgres, &plan.Units[0])
	assert.Equal(t, `CREATE TABLE "users" (`+"\n"+
		`  "id" BIGSERIAL NOT NULL,`+"\n"+
		`  "email" VARCHAR(191) NOT NULL,`+"\n"+
		`  "status" VARCHAR(255) NOT NULL DEFAULT 'active' CHECK ("status" IN ('active','banned')),`+"\n"+
		`  "bio" TEXT,`+"\n"+
		`  PRIMARY KEY ("id")`+"\n"+
		`);`+"\n"+
		`CREATE UNIQUE INDEX "users_email_unique" ON "users" ("email");`, up)

	_, down := renderUnit(t, schema.DialectPostgres, &plan.Units[2])
	assert.Equal(t, `ALTER TABLE "posts" DROP CONSTRAINT "posts_user_id_foreign";`, down)
}

func TestRenderSQLite(t *testing.T) {
	plan := samplePlan(t)

	up, _ := renderUnit(t, schema.DialectSQLite, &plan.Units[1])
	assert.Equal(t, `CREATE TABLE "posts" (`+"\n"+
		`  "id" INTEGER PRIMARY KEY AUTOINCREMENT,`+"\n"+
		`  "user_id" INTEGER NOT NULL,`+"\n"+
		`  "published" BOOLEAN NOT NULL DEFAULT 0`+"\n"+
		`);`+"\n"+
		`CREATE INDEX "posts_user_id_foreign" ON "posts" ("user_id");`, up)

	up, down := renderUnit(t, schema.DialectSQLite, &plan.Units[2])
	assert.Equal(t, `-- ALTER TABLE "posts" ADD CONSTRAINT "posts_user_id_foreign" FOREIGN KEY ("user_id") `+
		`REFERENCES "users" ("id") ON DELETE CASCADE;`, up)
	assert.Equal(t, `-- ALTER TABLE "posts" DROP CONSTRAINT "posts_user_id_foreign";`, down)
}

func TestRenderForeignKeyWithoutReferencedColumns(t *testing.T) {
	r, err := NewSQLRenderer(schema.DialectPostgres)
	require.NoError(t, err)

	out, err := r.Render([]migration.Operation{migration.AddForeignKey{
		Table: "posts",
		ForeignKey: schema.ForeignKey{
			Name: "posts_user_id_foreign", Columns: []string{"user_id"}, ReferencedTable: "users",
			OnUpdate: schema.ActionRestrict,
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "posts" ADD CONSTRAINT "posts_user_id_foreign" FOREIGN KEY ("user_id") REFERENCES "users" ON UPDATE RESTRICT;`, out)
}

func TestDefaultValues(t *testing.T) {
	tests := []struct {
		dialect schema.Dialect
		kind    schema.Kind
		in      string
		want    string
	}{
		{schema.DialectMySQL, schema.KindString, "active", "'active'"},
		{schema.DialectMySQL, schema.KindString, "it's", "'it''s'"},
		{schema.DialectMySQL, schema.KindInteger, "0", "0"},
		{schema.DialectMySQL, schema.KindDecimal, "1.50", "1.50"},
		{schema.DialectMySQL, schema.KindTimestamp, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{schema.DialectMySQL, schema.KindString, "'quoted'", "'quoted'"},
		{schema.DialectMySQL, schema.KindString, "'draft'::character varying", "'draft'"},
		{schema.DialectMySQL, schema.KindString, "a(b", "'a(b'"},
		{schema.DialectMySQL, schema.KindText, "see (note", "'see (note'"},
		{schema.DialectMySQL, schema.KindEnum, "x)", "'x)'"},
		{schema.DialectMySQL, schema.KindChar, "uuid()", "uuid()"},
		{schema.DialectMySQL, schema.KindDateTime, "(now() + interval 1 day)", "(now() + interval 1 day)"},
		{schema.DialectPostgres, schema.KindString, "'draft'::character varying", "'draft'::character varying"},
		{schema.DialectPostgres, schema.KindTimestampTz, "now()", "now()"},
		{schema.DialectPostgres, schema.KindString, "NULL::character varying", "NULL::character varying"},
		{schema.DialectPostgres, schema.KindString, "active", "'active'"},
		{schema.DialectPostgres, schema.KindRaw, "(now() + '1 day'::interval)", "(now() + '1 day'::interval)"},
		{schema.DialectSQLite, schema.KindText, "'x'::text", "'x'"},
		{schema.DialectSQLite, schema.KindDateTime, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect)+"/"+tt.in, func(t *testing.T) {
			r, err := NewSQLRenderer(tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.defaultValue(tt.in, tt.kind))
		})
	}
}

func TestColumnTypes(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want map[schema.Dialect]string
	}{
		{
			name: "decimal",
			col:  schema.Column{Kind: schema.KindDecimal, Precision: 10, Scale: 2},
			want: map[schema.Dialect]string{
				schema.DialectMySQL: "DECIMAL(10,2)", schema.DialectPostgres: "NUMERIC(10,2)", schema.DialectSQLite: "NUMERIC(10,2)",
			},
		},
		{
			name: "timestamp with time zone",
			col:  schema.Column{Kind: schema.KindTimestampTz},
			want: map[schema.Dialect]string{
				schema.DialectMySQL: "TIMESTAMP", schema.DialectPostgres: "TIMESTAMP WITH TIME ZONE", schema.DialectSQLite: "DATETIME",
			},
		},
		{
			name: "raw keeps native type",
			col:  schema.Column{Kind: schema.KindRaw, RawType: "geometry"},
			want: map[schema.Dialect]string{
				schema.DialectMySQL: "geometry", schema.DialectPostgres: "geometry", schema.DialectSQLite: "geometry",
			},
		},
		{
			name: "boolean",
			col:  schema.Column{Kind: schema.KindBoolean},
			want: map[schema.Dialect]string{
				schema.DialectMySQL: "TINYINT(1)", schema.DialectPostgres: "BOOLEAN", schema.DialectSQLite: "BOOLEAN",
			},
		},
		{
			name: "uuid",
			col:  schema.Column{Kind: schema.KindUUID},
			want: map[schema.Dialect]string{
				schema.DialectMySQL: "CHAR(36)", schema.DialectPostgres: "UUID", schema.DialectSQLite: "VARCHAR(36)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for dialect, want := range tt.want {
				r, err := NewSQLRenderer(dialect)
				require.NoError(t, err)
				assert.Equal(t, want, r.columnType(tt.col), dialect)
			}
		})
	}
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := NewSQLRenderer("oracle")
	assert.Error(t, err)
}

func TestRendererArtifacts(t *testing.T) {
	plan := samplePlan(t)

	r, err := New(schema.DialectMySQL, nil)
	require.NoError(t, err)

	artifacts, err := r.RenderAll(plan.Units)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "20240101000000_create_users_table.sql", artifacts[0].FileName)
	assert.Equal(t, "20240101000001_create_posts_table.sql", artifacts[1].FileName)
	assert.Equal(t, "20240101000002_add_foreign_keys_to_posts_table.sql", artifacts[2].FileName)

	content := string(artifacts[2].Content)
	assert.Contains(t, content, "-- AddForeignKeysToPostsTable\n")
	assert.Contains(t, content, "-- +goose Up\nALTER TABLE `posts` ADD CONSTRAINT")
	assert.Contains(t, content, "-- +goose Down\nALTER TABLE `posts` DROP FOREIGN KEY `posts_user_id_foreign`;")
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "migration.go.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("// {{.Sequence}} {{.Name}}\ntype {{.Class}} struct{}\n"), 0644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, ".go", tmpl.Ext())

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, TemplateData{Class: "CreateUsersTable", Name: "create_users_table", Sequence: "00000000000001"}))
	assert.Equal(t, "// 00000000000001 create_users_table\ntype CreateUsersTable struct{}\n", buf.String())

	_, err = LoadTemplate(filepath.Join(dir, "missing.tmpl"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.tmpl")
	require.NoError(t, os.WriteFile(bad, []byte("{{.Class"), 0644))
	_, err = LoadTemplate(bad)
	assert.Error(t, err)
}

func TestTemplateExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"stub.tmpl", ".sql"},
		{"/tmp/migration.php.tpl", ".php"},
		{"migration.php", ".php"},
		{"stub", ".sql"},
		{"migration.up.sql.tmpl", ".up.sql"},
		{"/srv/templates/create.up.sql.tpl", ".up.sql"},
		{"migration.up.sql", ".up.sql"},
		{".hidden.tmpl", ".sql"},
		{"trailing.", ".sql"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, templateExt(tt.path))
		})
	}
}

func TestWriterRejectsEscapingFileNames(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{"parent directory", "00000000000001_create_../x_table.sql"},
		{"relative escape", "../x.sql"},
		{"subdirectory", "nested/00000000000001_create_users_table.sql"},
		{"absolute", "/tmp/00000000000001_create_users_table.sql"},
		{"backslash", `..\x.sql`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "migrations")

			_, err := NewWriter(dir).WriteAll([]Artifact{{FileName: tt.fileName, Content: []byte("x")}})
			assert.ErrorIs(t, err, ErrInvalidFileName)
			assert.NoDirExists(t, dir)
			assert.NoFileExists(t, filepath.Join(root, "x.sql"))
		})
	}
}

func TestWriterNeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "database", "migrations")
	w := NewWriter(dir)

	artifacts := []Artifact{
		{FileName: "00000000000001_create_users_table.sql", Content: []byte("one")},
		{FileName: "00000000000002_create_posts_table.sql", Content: []byte("two")},
	}

	paths, err := w.WriteAll(artifacts)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	content, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))

	_, err = w.WriteAll([]Artifact{
		{FileName: "00000000000003_create_tags_table.sql", Content: []byte("three")},
		{FileName: "00000000000001_create_users_table.sql", Content: []byte("changed")},
	})
	assert.ErrorIs(t, err, ErrArtifactExists)

	content, err = os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "one", string(content))
	assert.NoFileExists(t, filepath.Join(dir, "00000000000003_create_tags_table.sql"))
}

func TestPlanPrinter(t *testing.T) {
	plan := samplePlan(t)
	plan.Empty = []string{"empty_table"}
	plan.Warnings = []migration.Warning{{Table: "posts", Constraint: "posts_tag_id_foreign", Message: "referenced table tags is not part of this run"}}

	var buf bytes.Buffer
	require.NoError(t, NewPlanPrinter(&buf).Print(plan))

	out := buf.String()
	assert.Contains(t, out, "20240101000000 create_users_table\n")
	assert.Contains(t, out, "  + column id: bigInteger UNSIGNED AUTO_INCREMENT NOT NULL\n")
	assert.Contains(t, out, "  + column status: enum (active|banned) NOT NULL DEFAULT active\n")
	assert.Contains(t, out, "  + primary PRIMARY (id)\n")
	assert.Contains(t, out, "  - drop table users\n")
	assert.Contains(t, out, "  + foreign posts_user_id_foreign (user_id) → users(id) ON DELETE CASCADE ON UPDATE NO ACTION\n")
	assert.Contains(t, out, "  - drop foreign posts_user_id_foreign\n")
	assert.Contains(t, out, "EMPTY empty_table\n")
	assert.Contains(t, out, "WARNING posts.posts_tag_id_foreign: referenced table tags is not part of this run\n")
}
