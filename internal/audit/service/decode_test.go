package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUpload(t *testing.T) {
	testCases := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{"plain", []byte("code,name\nA,B\n"), "code,name\nA,B\n", false},
		{"utf8 bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "code\nÁ\n"...), "code\nÁ\n", false},
		{"utf8 without bom", []byte("código;nome\nBalança\n"), "código;nome\nBalança\n", false},
		{"utf16le bom rejected", []byte{0xFF, 0xFE, 'c', 0, 'o', 0, 'd', 0, 'e', 0, '\n', 0, 'X', 0, '1', 0}, "", true},
		{"utf16be bom rejected", []byte{0xFE, 0xFF, 0, 'c', 0, 'o', 0, 'd', 0, 'e'}, "", true},
		{"invalid utf8", []byte("code\n\xff\xfe\xfd\n"), "", true},
		{"latin1 accent", []byte("descricao\nCol\xe9gio\n"), "", true},
		{"empty", nil, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeUpload(bytes.NewReader(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnreadableFile), "error should wrap ErrUnreadableFile: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	testCases := []struct {
		input string
		want  rune
	}{
		{"code,name\n", ','},
		{"code;name\n", ';'},
		{"code\tname\n", '\t'},
		{"\n\ncode;name;status\n", ';'},
		{"code\n", ','},
		{"", ','},
		{"code;name,with comma\n", ','},
	}
	for _, tc := range testCases {
		if got := sniffDelimiter([]byte(tc.input)); got != tc.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseTable(t *testing.T) {
	data := " Code , NAME ,Status\nA1,Beaker,ok\n\nA2,\"Flask, 500ml\"\nA3,Tube,ok,extra\n"
	tbl, err := parseTable([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"code", "name", "status"}, tbl.header)
	want := []record{
		{line: 2, fields: []string{"A1", "Beaker", "ok"}},
		{line: 4, fields: []string{"A2", "Flask, 500ml"}},
		{line: 5, fields: []string{"A3", "Tube", "ok", "extra"}},
	}
	if diff := cmp.Diff(want, tbl.records, cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, tbl.skipped)
}

func TestParseTable_Semicolons(t *testing.T) {
	tbl, err := parseTable([]byte("codigo;descricao;sistema\nX;Caixa;3\n"))
	require.NoError(t, err)
	require.Len(t, tbl.records, 1)
	assert.Equal(t, []string{"X", "Caixa", "3"}, tbl.records[0].fields)
}

func TestParseTable_HeaderOnlyAndEmpty(t *testing.T) {
	for _, input := range []string{"", "code,name\n", "\n\n"} {
		tbl, err := parseTable([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, tbl.records, "input %q", input)
	}
}

func TestParseTable_LazyQuotes(t *testing.T) {
	tbl, err := parseTable([]byte(strings.Join([]string{
		"code,name",
		`A1,12" ruler`,
		`A2,"open quote`,
	}, "\n")))
	require.NoError(t, err)
	require.Len(t, tbl.records, 2)
	assert.Equal(t, `12" ruler`, tbl.records[0].fields[1])
}
