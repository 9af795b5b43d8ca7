package sources

import jsoniter "github.com/json-iterator/go"

// codec keeps numbers as json.Number so prices and ids survive untouched
// until the normalizer parses them.
var codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()
