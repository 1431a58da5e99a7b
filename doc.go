// Package main provides the entry point of usersync.
// It runs a fiber web service that mirrors Clerk users into the application
// database from signed Svix webhooks and protects the remaining routes with
// Clerk sessions. The database is accessed through gorm (mysql, postgres or
// sqlite), user lifecycle events are optionally published to kafka.
package main
