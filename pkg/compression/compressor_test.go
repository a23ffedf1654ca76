package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)

	alg, err = ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestWriterReaderRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("id,name\r\n1,alpha\r\n2,beta\r\n"), 200)

	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg, Default)
			require.NoError(t, err)

			_, err = w.Write(original)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if alg != None {
				assert.Less(t, buf.Len(), len(original))
			}

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, original, got)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, "", None.Extension())
}
