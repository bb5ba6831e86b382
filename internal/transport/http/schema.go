package analysishttp

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// optionsSchema 约束 /api/analyze 的 options 字段。
var optionsSchema = jsonschema.MustCompileString("options.json", `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "encoding": {
      "type": "string",
      "enum": ["shift_jis", "cp932", "euc_jp", "utf-8", "latin1"]
    },
    "delimiter": {
      "type": "string",
      "enum": [",", "\t", ";"]
    },
    "skip_rows": {
      "type": "integer",
      "minimum": 0,
      "maximum": 50
    },
    "benchmark_symbol": {
      "type": "string",
      "minLength": 1
    },
    "preset": {
      "type": "string",
      "minLength": 1
    },
    "tolerance_days": {
      "type": "integer",
      "minimum": 0,
      "maximum": 60
    },
    "indicator": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ma_short": {"type": "integer", "minimum": 1},
        "ma_medium": {"type": "integer", "minimum": 1},
        "ma_long": {"type": "integer", "minimum": 1},
        "rsi_window": {"type": "integer", "minimum": 1},
        "macd_fast": {"type": "integer", "minimum": 1},
        "macd_slow": {"type": "integer", "minimum": 1},
        "macd_signal": {"type": "integer", "minimum": 1}
      }
    }
  }
}`)

func validateOptions(raw string) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return optionsSchema.Validate(doc)
}
