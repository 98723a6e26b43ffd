package sqlstore

import (
	"strings"

	"github.com/google/uuid"

	"github.com/graphbind/graphbind/internal/naming"
	"github.com/graphbind/graphbind/model"
)

// scanRecords reads every row into a record keyed by camelCase field names,
// tagged with the backing model so abstract-type resolution can recover it.
func scanRecords(rows Rows, m *model.Model) ([]model.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldNames := make([]string, len(columns))
	uuidCols := make([]bool, len(columns))
	for i, col := range columns {
		fieldNames[i] = naming.ToFieldName(col)
		uuidCols[i] = m.IsUUIDColumn(col)
	}

	var results []model.Record

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rec := make(model.Record, len(columns)+1)
		for i := range columns {
			rec[fieldNames[i]] = convertValue(values[i], uuidCols[i])
		}
		results = append(results, model.TagRecord(rec, m.Name))
	}

	return results, rows.Err()
}

func convertValue(val interface{}, isUUID bool) interface{} {
	if val == nil {
		return nil
	}

	if b, ok := val.([]byte); ok {
		if isUUID {
			if parsed, err := uuid.FromBytes(b); err == nil {
				return strings.ToLower(parsed.String())
			}
		}
		return string(b)
	}

	return val
}
