package schema

import _ "embed"

//go:embed source-index.schema.json
var SourceIndexSchema []byte
