// Package testsupport provides shared fixtures for package tests: isolated
// configs backed by temp directories and helpers that open and seed a SQLite
// event store.
package testsupport
