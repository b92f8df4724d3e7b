package dbx

import sq "github.com/Masterminds/squirrel"

// Builder renders squirrel statements with PostgreSQL $n placeholders.
// Statements are only rendered (ToSql) here; execution stays on a DBTX.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
