package processor

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/streamingfast/dstore"
	"github.com/streamingfast/fieldhash/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, dir, filename, content string) {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readOutput(t *testing.T, dir, filename string) [][]string {
	t.Helper()

	f, err := os.Open(filepath.Join(dir, filename))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	return rows
}

func newTestProcessor(t *testing.T, inputDir, outputDir string, hasher *record.Hasher) *Processor {
	t.Helper()

	inputStore, err := dstore.NewStore(inputDir, "", "", false)
	require.NoError(t, err)

	outputStore, err := dstore.NewStore(outputDir, "", "", true)
	require.NoError(t, err)

	return New(inputStore, outputStore, hasher, 2, nil, nil, WithStatsInterval(0))
}

func TestProcessor_Run(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeInput(t, inputDir, "0000000000-0000000999.jsonl", `{"id":"a","amount":1}
{"amount":1,"id":"a"}

{"id":"b","amount":2}
`)
	writeInput(t, inputDir, "0000001000-0000001999.jsonl", `{"id":"c","amount":3}`)
	writeInput(t, inputDir, "notes.txt", "not hashed")

	hasher := record.NewHasher(nil, "id", "amount")
	p := newTestProcessor(t, inputDir, outputDir, hasher)
	p.Run(context.Background())

	require.NoError(t, p.Err())

	first := readOutput(t, outputDir, "0000000000-0000000999.csv")
	require.Len(t, first, 4)
	assert.Equal(t, csvHeader, first[0])

	assert.Equal(t, "0000000000-0000000999.jsonl", first[1][0])
	assert.Equal(t, []string{"1", "2", "4"}, []string{first[1][1], first[2][1], first[3][1]})
	assert.Equal(t, first[1][2], first[2][2], "key order in input is ignored")
	assert.NotEqual(t, first[1][2], first[3][2])

	expected, err := hasher.Hash(record.Record{"id": "a", "amount": "1"})
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(int64(expected), 10), first[1][2])

	second := readOutput(t, outputDir, "0000001000-0000001999.csv")
	require.Len(t, second, 2)
	assert.Equal(t, "1", second[1][1])

	_, err = os.Stat(filepath.Join(outputDir, "notes.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessor_InvalidRecord(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeInput(t, inputDir, "broken.jsonl", "{\"id\":\"a\"}\n{\"id\":\n")

	p := newTestProcessor(t, inputDir, outputDir, record.NewHasher(nil, "id"))
	p.Run(context.Background())

	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "line 2")
	assert.Contains(t, p.Err().Error(), "broken.jsonl")
}

func TestProcessor_NoInput(t *testing.T) {
	p := newTestProcessor(t, t.TempDir(), t.TempDir(), record.NewHasher(nil, "id"))
	p.Run(context.Background())

	assert.Error(t, p.Err())
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "a/b.csv", OutputFilename("a/b.jsonl"))
	assert.Equal(t, "plain.csv", OutputFilename("plain"))
}
