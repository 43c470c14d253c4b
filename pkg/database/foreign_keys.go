package database

import (
	"fmt"
	"sort"

	"giveback/models"

	"gorm.io/gorm"
)

// ForeignKey is one single-column foreign key as the database reports it.
type ForeignKey struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
}

func (fk ForeignKey) String() string {
	return fmt.Sprintf("%s(%s) -> %s(%s) ON DELETE %s", fk.Table, fk.Column, fk.RefTable, fk.RefColumn, fk.OnDelete)
}

const pgForeignKeys = `
	SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name, rc.delete_rule
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
	JOIN information_schema.constraint_column_usage ccu
	  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
	JOIN information_schema.referential_constraints rc
	  ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name IN ?`

// ForeignKeys lists the foreign keys declared on tables, sorted by table and column.
// It reads the live schema, so it shows what AutoMigrate actually created.
func ForeignKeys(db *gorm.DB, tables ...string) ([]ForeignKey, error) {
	var out []ForeignKey
	switch name := db.Dialector.Name(); name {
	case "postgres":
		rows, err := db.Raw(pgForeignKeys, tables).Rows()
		if err != nil {
			return nil, fmt.Errorf("query constraints: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var fk ForeignKey
			if err := rows.Scan(&fk.Table, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete); err != nil {
				return nil, fmt.Errorf("scan: %w", err)
			}
			out = append(out, fk)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	case "sqlite":
		for _, table := range tables {
			rows, err := db.Raw(`SELECT "table", "from", "to", on_delete FROM pragma_foreign_key_list(?)`, table).Rows()
			if err != nil {
				return nil, fmt.Errorf("query constraints of %s: %w", table, err)
			}
			for rows.Next() {
				fk := ForeignKey{Table: table}
				if err := rows.Scan(&fk.RefTable, &fk.Column, &fk.RefColumn, &fk.OnDelete); err != nil {
					rows.Close()
					return nil, fmt.Errorf("scan: %w", err)
				}
				out = append(out, fk)
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("foreign key listing not supported for %s", name)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

// AppTables are the tables created by Migrate, in dependency order.
func AppTables(db *gorm.DB) ([]string, error) {
	var tables []string
	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		tables = append(tables, stmt.Schema.Table)
	}
	return append(tables, "profile_favourite_projects"), nil
}
