// Package memory holds process-local implementations of the repository
// interfaces. They back the service when no Postgres DSN is configured and
// serve as the fixtures for service tests.
package memory
