package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBlockedRFCs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat_credit_id_rfc.csv")
	content := "credit_id,rfc\n1,goap850101ab9\n2, HCA-061115-AB3 \n3,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	blocked, err := LoadBlockedRFCs(path)
	require.NoError(t, err)

	assert.Len(t, blocked, 2)
	assert.True(t, blocked["GOAP850101AB9"])
	assert.True(t, blocked["HCA061115AB3"])
}

func TestLoadBlockedRFCsHeaderContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.csv")
	content := "id,cliente_rfc\n1,PELJ900215AB1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	blocked, err := LoadBlockedRFCs(path)
	require.NoError(t, err)

	assert.True(t, blocked["PELJ900215AB1"])
}

func TestLoadBlockedRFCsColumnGuess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.csv")
	content := "id,nombre\n,GOAP850101AB9\n,HCA061115AB3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	blocked, err := LoadBlockedRFCs(path)
	require.NoError(t, err)

	assert.Len(t, blocked, 2)
	assert.True(t, blocked["GOAP850101AB9"])
}

func TestLoadBlockedRFCsMissingFile(t *testing.T) {
	blocked, err := LoadBlockedRFCs(filepath.Join(t.TempDir(), "nope.csv"))

	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestLoadBlockedRFCsLatin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.csv")
	content := []byte("rfc\nA\xd1O1850101AB9\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	blocked, err := LoadBlockedRFCs(path)
	require.NoError(t, err)

	// The Ñ byte decodes but normalization keeps A-Z and digits only.
	assert.Len(t, blocked, 1)
	assert.True(t, blocked["AO1850101AB9"])
}
