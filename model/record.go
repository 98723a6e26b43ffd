package model

// Rows travel through resolution as plain column maps. The backing model
// name rides along under a reserved key so abstract-type resolution can
// recover it without a parallel lookup structure; the key never appears in
// GraphQL output because field selection is schema-driven.
const recordModelKey = "__model"

// Record is one row of a backing model.
type Record = map[string]interface{}

// TagRecord stamps rec with the backing model name and returns rec.
func TagRecord(rec Record, modelName string) Record {
	if rec == nil {
		return nil
	}
	rec[recordModelKey] = modelName
	return rec
}

// RecordModel extracts the backing model name from a runtime value produced
// by this layer. Returns false for foreign values.
func RecordModel(value interface{}) (string, bool) {
	rec, ok := value.(Record)
	if !ok {
		return "", false
	}
	name, ok := rec[recordModelKey].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
