package domain

// Injected destination columns, always written alongside declared ones.
const (
	// ColumnSchemaID holds the schema id of the source payload.
	ColumnSchemaID = "SchemaID"

	// ColumnDocumentLocation holds the source path of the payload.
	ColumnDocumentLocation = "documentlocation"

	// ColumnIdentifier is the business key column.
	ColumnIdentifier = "Identifier"
)

// ResolvedSchema is a local schema document together with its destination
// table. It is computed fresh per resolution; nothing about a table's shape
// is compiled into the program.
type ResolvedSchema struct {
	// ID is the schema identifier the payload declared.
	ID string

	// Table is the destination table name. It is a deterministic, injective
	// function of ID.
	Table string

	// Location is where the schema document was loaded from.
	Location string

	// Document is the decoded schema document.
	Document map[string]any

	// Columns lists the top-level properties the schema declares, sorted.
	Columns []string
}

// Violation is one way a payload fails its schema.
type Violation struct {
	// Field is a JSON pointer to the offending value ("" for the document).
	Field string

	// Keyword is the schema keyword that failed (e.g. "required", "enum").
	Keyword string

	// Message describes the failure.
	Message string
}

func (v Violation) String() string {
	field := v.Field
	if field == "" {
		field = "/"
	}
	return field + ": " + v.Message
}

// ValidationResult is the outcome of validating a payload.
// It is Valid when Violations is empty, in which case Identifier is set.
type ValidationResult struct {
	Identifier string
	Violations []Violation
}

// Valid reports whether the payload conformed to its schema.
func (r ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}
