// Package schema resolves schema ids to JSON Schema documents held in a
// local directory and validates payloads against them.
package schema
