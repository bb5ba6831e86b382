package repair

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	"kabuscope/internal/logger"
)

// ErrEncodingFailure 表示候选编码全部解码失败。
var ErrEncodingFailure = errors.New("no candidate encoding decodes the input")

// DefaultEncodings 是解码尝试的优先级列表，券商导出默认 shift_jis。
var DefaultEncodings = []string{"shift_jis", "utf-8", "cp932", "euc_jp", "latin1"}

// Options 描述一次表格修复请求。
type Options struct {
	Encoding  string   // 声明编码；为空时直接走候选列表
	Fallbacks []string // 声明编码失败后的候选列表；为空用 DefaultEncodings
	Delimiter rune     // ',' '\t' ';'；零值按逗号处理
	SkipRows  int      // 跳过文件头部的行数（0–10）
	Probe     bool     // 失败时是否用 chardet 探测
}

// Table 是修复后的矩形字符串表。
type Table struct {
	Rows     [][]string `json:"rows"`
	Encoding string     `json:"encoding"` // 实际命中的编码
}

var decoders = map[string]encoding.Encoding{
	"utf-8":     nil, // 原样校验
	"utf8":      nil,
	"shift_jis": japanese.ShiftJIS,
	"cp932":     japanese.ShiftJIS,
	"euc_jp":    japanese.EUCJP,
	"latin1":    charmap.ISO8859_1,
}

// DecodeTable 按优先级解码字节流并解析为矩形表。
// 所有候选编码都失败时返回 ErrEncodingFailure。
func DecodeTable(raw []byte, opts Options) (Table, error) {
	if len(raw) == 0 {
		return Table{}, fmt.Errorf("%w: empty input", ErrEncodingFailure)
	}
	if opts.SkipRows < 0 || opts.SkipRows > 10 {
		return Table{}, fmt.Errorf("skip_rows 超出范围 [0,10]: %d", opts.SkipRows)
	}
	for _, name := range candidateEncodings(raw, opts) {
		text, ok := decodeAs(raw, name)
		if !ok {
			logger.Debugf("repair: 编码 %s 解码失败，尝试下一候选", name)
			continue
		}
		rows, err := parseRows(text, opts.Delimiter, opts.SkipRows)
		if err != nil {
			return Table{}, err
		}
		return Table{Rows: rows, Encoding: canonicalName(name)}, nil
	}
	return Table{}, ErrEncodingFailure
}

func candidateEncodings(raw []byte, opts Options) []string {
	fallbacks := opts.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = DefaultEncodings
	}
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = canonicalName(name)
		if name == "" || seen[name] {
			return
		}
		if _, known := decoders[name]; !known {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	add(opts.Encoding)
	if opts.Probe {
		if guess := probeEncoding(raw); guess != "" {
			add(guess)
		}
	}
	for _, name := range fallbacks {
		add(name)
	}
	return out
}

// probeEncoding 用 chardet 给出最可能的编码名；识别不了返回空串。
func probeEncoding(raw []byte) string {
	best, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || best == nil {
		return ""
	}
	switch strings.ToLower(best.Charset) {
	case "utf-8":
		return "utf-8"
	case "shift_jis", "windows-31j":
		return "shift_jis"
	case "euc-jp":
		return "euc_jp"
	case "iso-8859-1", "windows-1252":
		return "latin1"
	default:
		return ""
	}
}

func canonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "utf8" {
		return "utf-8"
	}
	return name
}

// decodeAs 将字节流按指定编码转为 UTF-8 文本。
// 出现替换符说明源字节在该编码下非法，视为解码失败。
func decodeAs(raw []byte, name string) (string, bool) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	enc := decoders[canonicalName(name)]
	if enc == nil {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) && !bytes.ContainsRune(raw, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}

func parseRows(text string, delimiter rune, skipRows int) ([][]string, error) {
	if delimiter == 0 {
		delimiter = ','
	}
	switch delimiter {
	case ',', '\t', ';':
	default:
		return nil, fmt.Errorf("不支持的分隔符: %q", delimiter)
	}
	// 先按行剥掉文件头部，避免导出文件的说明行干扰 csv 解析。
	for i := 0; i < skipRows; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return nil, nil
		}
		text = text[idx+1:]
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv 解析失败: %w", err)
	}
	return records, nil
}
