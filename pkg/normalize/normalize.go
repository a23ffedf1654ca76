// Package normalize turns a parsed JSON document into tabular rows.
package normalize

import "github.com/ajitpratap0/fetchcsv/pkg/models"

// Normalize converts v into an ordered sequence of rows:
//   - an array yields one row per element, objects as-is and every other
//     element as {"value": <compact JSON>}
//   - an object yields exactly one row equal to the object
//   - any scalar yields exactly one {"value": <compact JSON>} row
//
// Nested values are not flattened. An empty array yields no rows.
func Normalize(v models.Value) []models.Row {
	switch v.Kind() {
	case models.KindArray:
		items := v.Items()
		rows := make([]models.Row, 0, len(items))
		for _, item := range items {
			rows = append(rows, elementRow(item))
		}
		return rows
	case models.KindObject:
		return []models.Row{models.RowFromObject(v.Object())}
	default:
		return []models.Row{models.ScalarRow(v)}
	}
}

func elementRow(item models.Value) models.Row {
	if item.Kind() == models.KindObject {
		return models.RowFromObject(item.Object())
	}
	return models.ScalarRow(item)
}
