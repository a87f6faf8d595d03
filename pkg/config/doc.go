// Package config provides configuration management for wardgate.
//
// Configuration is read from a YAML file, completed with defaults,
// overlaid with environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("wardgate.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WARDGATE_SECTION_FIELD
// and always take precedence over the file:
//
//   - WARDGATE_DATABASE_PATH overrides database.path
//   - WARDGATE_ONBOARDING_SESSION_BACKEND overrides onboarding.session_backend
//   - WARDGATE_ONBOARDING_REDIS_ADDRESS overrides onboarding.redis.address
//   - WARDGATE_WORLD_ADDRESS overrides world.address
//   - WARDGATE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The world layout (terminal and doors) is file-only.
//
// # Hot Reload
//
// Watcher observes the configuration file and swaps in the new
// configuration after a debounce interval. The world command uses it to
// move the terminal and doors without a restart; settings read only at
// startup, such as the database path, need a restart to take effect.
//
// # Example Configuration
//
//	database:
//	  path: "hospital_mc.db"
//
//	onboarding:
//	  session_backend: "redis"
//	  redis:
//	    address: "localhost:6379"
//
//	world:
//	  address: "localhost:4711"
//	  terminal: {x: 76, y: 11, z: 48}
//	  doors:
//	    - {x: 106, y: 11, z: 38}
//	    - {x: 106, y: 11, z: 37}
//
//	backup:
//	  schedule: "0 3 * * *"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
