package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Id", "Xid")
	table.AddRow("a1", "7")
	table.AddRow("b2", "8")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "XID")
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "8")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Server", "nfs:2049"}}))

	assert.Contains(t, buf.String(), "Server")
	assert.Contains(t, buf.String(), "nfs:2049")
}

func TestPrinterFormats(t *testing.T) {
	data := map[string]int{"xid": 7}

	var js bytes.Buffer
	require.NoError(t, NewPrinter(&js, FormatJSON).Print(data))
	assert.JSONEq(t, `{"xid": 7}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, NewPrinter(&ym, FormatYAML).Print(data))
	assert.Equal(t, "xid: 7\n", ym.String())

	var fallback bytes.Buffer
	require.NoError(t, NewPrinter(&fallback, FormatTable).Print(data))
	assert.JSONEq(t, `{"xid": 7}`, fallback.String())
}
