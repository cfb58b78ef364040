// Package fixtures resets external data stores that an application under test writes to outside
// of its transactional database, so that every test starts from empty stores.
package fixtures
