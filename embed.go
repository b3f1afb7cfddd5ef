package bitacoraengine

import _ "embed"

// SchemaSQL is the Postgres schema applied to a fresh database.
//
//go:embed schema.sql
var SchemaSQL []byte
