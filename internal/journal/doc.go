// Package journal keeps a local SQLite history of entity state changes.
//
// A Journal registered as an entity.Listener appends one row per sensor
// reading or switch change to entity_state_history. The HTTP API serves the
// newest rows per entity, and old rows are pruned by age at startup.
package journal
