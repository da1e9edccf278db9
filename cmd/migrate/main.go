package main

import (
	"finfeathers_tokens/internal/config" // Custom import path (Config)
	"finfeathers_tokens/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	db.Migrate(cfg.DSN())                                         // Create/upgrade the schema
	db.SeedAdmin(cfg.DSN(), cfg.AdminUsername, cfg.AdminPassword) // Ensure a login-capable admin exists
}
