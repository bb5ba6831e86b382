package repair

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func encodeShiftJIS(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return raw
}

func TestDecodeTableShiftJIS(t *testing.T) {
	text := "約定日,銘柄\n2024/1/10,トヨタ自動車\n"
	raw := encodeShiftJIS(t, text)

	table, err := DecodeTable(raw, Options{Encoding: "shift_jis"})
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", table.Encoding)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "トヨタ自動車", table.Rows[1][1])
}

func TestDecodeTableFallsBackWhenDeclaredEncodingFails(t *testing.T) {
	raw := encodeShiftJIS(t, "日付,金額\n2024/1/10,100\n")

	// shift_jis 字节不是合法 UTF-8，声明 utf-8 后应回落到候选列表。
	table, err := DecodeTable(raw, Options{Encoding: "utf-8", Probe: true})
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", table.Encoding)
	assert.Equal(t, "日付", table.Rows[0][0])
}

func TestDecodeTableSkipRows(t *testing.T) {
	text := "ご注意\n\"自由記述, カンマ入り\"\n日付,金額\n2024/1/10,100\n"
	table, err := DecodeTable([]byte(text), Options{Encoding: "utf-8", SkipRows: 2})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"日付", "金額"}, table.Rows[0])
}

func TestDecodeTableSkipRowsBeyondFile(t *testing.T) {
	table, err := DecodeTable([]byte("a,b\n"), Options{Encoding: "utf-8", SkipRows: 5})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestDecodeTableSkipRowsOutOfRange(t *testing.T) {
	_, err := DecodeTable([]byte("a,b\n"), Options{SkipRows: 11})
	assert.Error(t, err)
}

func TestDecodeTableTabDelimiter(t *testing.T) {
	table, err := DecodeTable([]byte("a\tb\nc\td\n"), Options{Encoding: "utf-8", Delimiter: '\t'})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, table.Rows)
}

func TestDecodeTableAllCandidatesFail(t *testing.T) {
	// 0xFF 0xFE 在 utf-8 下非法；把候选收窄到 utf-8 以触发整体失败。
	_, err := DecodeTable([]byte{0xFF, 0xFE, 0x00}, Options{Fallbacks: []string{"utf-8"}})
	assert.ErrorIs(t, err, ErrEncodingFailure)
}

func TestDecodeTableRaggedRows(t *testing.T) {
	text := strings.Join([]string{"a,b,c", "d,e", "f,g,h,i"}, "\n")
	table, err := DecodeTable([]byte(text), Options{Encoding: "utf-8"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Len(t, table.Rows[1], 2)
	assert.Len(t, table.Rows[2], 4)
}
