package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultMigrationDir is the directory name Discovery searches for when
	// none is configured
	DefaultMigrationDir = "migrations"

	// DefaultParentMigrationDir is the filesystem parent tried after the
	// classpath-style resource lookup fails
	DefaultParentMigrationDir = "resources/"

	// DefaultTableName is the bookkeeping table created in the target
	// database
	DefaultTableName = "schema_migrations"

	// DefaultInitScript is the init script filename looked up inside the
	// migration directory
	DefaultInitScript = "init.sql"

	// ReservationID is the reserved bookkeeping row id that marks exclusive
	// mutation rights; never a valid migration id
	ReservationID int64 = -1

	// CommandSeparator is the line that splits a SQL migration file into
	// separately executed statements
	CommandSeparator = "--;;"
)
