// Wardgate is the access-control gateway of the hospital records system.
//
// It decides which clinical fields each staff role may read, keeps the
// audit trail, registers new patients, and enforces ward doors inside a
// Minecraft-Pi world.
//
// Usage:
//
//	# Interactive records console
//	wardgate console --config wardgate.yaml
//
//	# Game-world poller (terminal, doors, chat registration)
//	wardgate world --config wardgate.yaml
//
//	# Security dashboard for the compliance service account
//	wardgate audit report --user etl_service
//
//	# Export the audit trail
//	wardgate audit export --format csv --output audit.csv
//
//	# Hot backup, once or on the configured cron schedule
//	wardgate backup run --user etl_service
//	wardgate backup schedule
//
//	# Verify the database schema
//	wardgate schema check
package main

func main() {
	Execute()
}
