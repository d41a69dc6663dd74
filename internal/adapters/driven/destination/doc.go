// Package destination writes validated payloads into per-schema tables of a
// relational database. Tables are provisioned outside of this program; the
// reconciler only maps payload keys onto the columns it finds.
package destination
