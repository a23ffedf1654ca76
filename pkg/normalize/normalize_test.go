package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/fetchcsv/pkg/models"
)

func parse(t *testing.T, doc string) models.Value {
	t.Helper()
	v, err := models.Parse([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestNormalize_ArrayOfObjects(t *testing.T) {
	rows := Normalize(parse(t, `[{"id": 1, "tags": ["a"]}, {"id": 2, "meta": {"k": null}}]`))

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "tags"}, rows[0].Keys())
	assert.Equal(t, `["a"]`, rows[0].Cell("tags"))
	assert.Equal(t, []string{"id", "meta"}, rows[1].Keys())
	assert.Equal(t, `{"k":null}`, rows[1].Cell("meta"))
}

func TestNormalize_MixedArray(t *testing.T) {
	rows := Normalize(parse(t, `[{"a": "x"}, 3, "s", null, [1, 2]]`))

	require.Len(t, rows, 5)
	assert.Equal(t, "x", rows[0].Cell("a"))

	want := []string{`3`, `"s"`, `null`, `[1,2]`}
	for i, text := range want {
		assert.Equal(t, []string{models.ValueColumn}, rows[i+1].Keys())
		assert.Equal(t, text, rows[i+1].Cell(models.ValueColumn))
	}
}

func TestNormalize_SingleObject(t *testing.T) {
	rows := Normalize(parse(t, `{"b": true, "a": 1}`))

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0].Keys())
	assert.Equal(t, "true", rows[0].Cell("b"))
}

func TestNormalize_Scalars(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{doc: `42`, want: `42`},
		{doc: `"x"`, want: `"x"`},
		{doc: `true`, want: `true`},
		{doc: `null`, want: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			rows := Normalize(parse(t, tt.doc))
			require.Len(t, rows, 1)
			assert.Equal(t, []string{models.ValueColumn}, rows[0].Keys())
			assert.Equal(t, tt.want, rows[0].Cell(models.ValueColumn))
		})
	}
}

func TestNormalize_EmptyArray(t *testing.T) {
	assert.Empty(t, Normalize(parse(t, `[]`)))
}

func TestNormalize_PreservesOrder(t *testing.T) {
	rows := Normalize(parse(t, `[{"n": 3}, {"n": 1}, {"n": 2}]`))

	got := make([]string, 0, len(rows))
	for _, row := range rows {
		got = append(got, row.Cell("n"))
	}
	assert.Equal(t, []string{"3", "1", "2"}, got)
}
