package stimuli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

func TestReadParsesTypedColumns(t *testing.T) {
	t.Parallel()
	input := "id,context,tgtvar,TargetDiff,canary\n" +
		"social_1_2,\"Ann, who is tall, waves.\",2,0.5,\n" +
		"social_1_3,Bob waves.,1,,True\n"

	items, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "social_1_2", items[0]["id"])
	require.Equal(t, "Ann, who is tall, waves.", items[0]["context"])
	require.Equal(t, int64(2), items[0]["tgtvar"])
	require.Equal(t, 0.5, items[0]["TargetDiff"])
	require.Nil(t, items[0]["canary"])
	require.Equal(t, true, items[1]["canary"])
}

func TestReadKeepsNonFiniteNumbersAsStrings(t *testing.T) {
	t.Parallel()
	items, err := Read(strings.NewReader("id,Target\n1,Infinity\n2,nan\n3,-inf\n4,1e400\n"))
	require.NoError(t, err)
	require.Len(t, items, 4)

	require.Equal(t, "Infinity", items[0]["Target"])
	require.Equal(t, "nan", items[1]["Target"])
	require.Equal(t, "-inf", items[2]["Target"])
	require.Equal(t, "1e400", items[3]["Target"])

	_, err = json.Marshal(items)
	require.NoError(t, err)
}

func TestReadEmptyInput(t *testing.T) {
	t.Parallel()
	items, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestReadRejectsRaggedRows(t *testing.T) {
	t.Parallel()
	_, err := Read(strings.NewReader("a,b\n1\n"))
	require.ErrorIs(t, err, domain.ErrInvalidStimuliFile)
}

func TestLoadDirOrdersByIndex(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"likert_10.csv": "id\nc\n",
		"likert_2.csv":  "id\nb\n",
		"likert_0.csv":  "id\na\n",
		"notes.txt":     "ignored",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	lists, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	require.Equal(t, []string{"0", "2", "10"}, []string{lists[0].Idx, lists[1].Idx, lists[2].Idx})
	require.Equal(t, "c", lists[2].Items[0]["id"])
}

func TestLoadDirRejectsBadName(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "likert_x.csv"), []byte("id\n"), 0o644))

	_, err := LoadDir(dir)
	require.ErrorIs(t, err, domain.ErrInvalidStimuliFile)
}

func TestLoadDirMissingDirIsEmpty(t *testing.T) {
	t.Parallel()
	lists, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, lists)
}
