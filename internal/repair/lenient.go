package repair

import (
	"strings"

	"github.com/dgallion1/jsonlens/internal/jsonvalue"
	"github.com/kaptinlin/jsonrepair"
)

// TryLenient repairs generally malformed text (single quotes, unquoted keys,
// comments, trailing commas) with jsonrepair, then parses the result strictly.
// The same candidacy rule as TryRepair applies: the text must begin with
// { or [. Only containers are accepted as a result.
func TryLenient(text string) (jsonvalue.Value, bool) {
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return jsonvalue.Value{}, false
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	v, err := jsonvalue.ParseString(repaired)
	if err != nil || !v.IsContainer() {
		return jsonvalue.Value{}, false
	}
	return v, true
}
