package pinecone

// Metadata filter builders for the store's query language. Filters are
// plain JSON objects; these helpers keep call sites readable and the
// operator strings in one place.

// Eq matches records whose field equals value.
func Eq(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{field: map[string]interface{}{"$eq": value}}
}

// In matches records whose field is any of values.
func In(field string, values []string) map[string]interface{} {
	converted := make([]interface{}, len(values))
	for i, v := range values {
		converted[i] = v
	}
	return map[string]interface{}{field: map[string]interface{}{"$in": converted}}
}

// And conjoins clauses, skipping nils so callers can pass optional
// dimensions straight through.
func And(clauses ...map[string]interface{}) map[string]interface{} {
	kept := make([]interface{}, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0].(map[string]interface{})
	default:
		return map[string]interface{}{"$and": kept}
	}
}
