package sqlite

// SchemaVersion is the current version of the hospital schema.
const SchemaVersion = 1

// schemaStatements create the hospital schema. Each statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Roles (
		role_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS UserRoles (
		user_id INTEGER PRIMARY KEY REFERENCES Users(user_id) ON DELETE CASCADE,
		role_id INTEGER NOT NULL REFERENCES Roles(role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS Patients (
		patient_id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE,
		dob TEXT NOT NULL,
		ssn TEXT,
		phone TEXT,
		address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS Doctors (
		doctor_id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		specialty TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Nurses (
		nurse_id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Treatments (
		treatment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES Patients(patient_id),
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_patient ON Treatments(patient_id)`,
	`CREATE TABLE IF NOT EXISTS AuditLogs (
		log_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		actor_name TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		table_name TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auditlogs_timestamp ON AuditLogs(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_auditlogs_action ON AuditLogs(action)`,
}

// insertSchemaVersion records SchemaVersion once.
const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING`

// getSchemaVersion returns the highest applied version.
const getSchemaVersion = `SELECT COALESCE(MAX(version), 0) FROM schema_version`

// seedRole inserts one reference role.
const seedRole = `INSERT OR IGNORE INTO Roles (role_id, name) VALUES (?, ?)`

// roleIDs fixes the reference ids of the role enumeration.
var roleIDs = []struct {
	ID   int64
	Name string
}{
	{1, "admin_db"},
	{2, "doctor"},
	{3, "nurse"},
	{4, "pharmacist"},
	{5, "lab_tech"},
	{6, "auditor"},
	{7, "etl_service"},
	{8, "patient"},
}

// expectedColumns lists the columns each table must carry. Extra columns
// are tolerated; missing ones are a startup error.
var expectedColumns = map[string][]string{
	"Roles":      {"role_id", "name"},
	"Users":      {"user_id", "username", "password_hash", "email", "full_name", "is_active"},
	"UserRoles":  {"user_id", "role_id"},
	"Patients":   {"patient_id", "first_name", "last_name", "email", "dob", "ssn", "phone", "address"},
	"Doctors":    {"doctor_id", "first_name", "last_name", "specialty", "email"},
	"Nurses":     {"nurse_id", "first_name", "last_name", "department", "email"},
	"Treatments": {"treatment_id", "patient_id", "description", "status"},
	"AuditLogs":  {"log_id", "user_id", "actor_name", "action", "table_name", "details", "timestamp"},
}
