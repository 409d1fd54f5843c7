package store

// Statements shared by every SQL driver. Each entry is executed on its own so
// drivers without multi-statement support can run them.
var sheetSchema = []string{
	`CREATE TABLE IF NOT EXISTS sheet_rows (
  sheet TEXT NOT NULL,
  row_num INTEGER NOT NULL,
  cells TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (sheet, row_num)
)`,
}

var schemaMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
)`
