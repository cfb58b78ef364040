// Package transaction implements per-test transactional isolation: a test's database work happens
// inside a transaction that the harness always rolls back afterward.
package transaction
