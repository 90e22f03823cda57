package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairs(t *testing.T) {
	tests := []struct {
		name   string
		repair Repair
		in     string
		want   string
	}{
		{"line comment", RepairStripComments, "{\"a\": 1 // note\n}", "{\"a\": 1 \n}"},
		{"hash comment", RepairStripComments, "{\"a\": 1 # note\n}", "{\"a\": 1 \n}"},
		{"block comment", RepairStripComments, `{/* x */"a": 1}`, `{"a": 1}`},
		{"comment marker inside string", RepairStripComments, `{"url": "http://x"}`, `{"url": "http://x"}`},
		{"single quotes", RepairNormalizeQuotes, `{'a': 'b'}`, `{"a": "b"}`},
		{"double quote inside single", RepairNormalizeQuotes, `{'a': 'say "x"'}`, `{"a": "say \"x\""}`},
		{"escaped single quote", RepairNormalizeQuotes, `{'a': 'it\'s'}`, `{"a": "it's"}`},
		{"apostrophe inside double", RepairNormalizeQuotes, `{"a": "it's"}`, `{"a": "it's"}`},
		{"smart quotes", RepairNormalizeQuotes, `{“a”: “b”}`, `{"a": "b"}`},
		{"bare keys", RepairQuoteKeys, `{a: 1, b_c: {d-e: 2}}`, `{"a": 1, "b_c": {"d-e": 2}}`},
		{"bare value untouched", RepairQuoteKeys, `{"a": b}`, `{"a": b}`},
		{"key inside string untouched", RepairQuoteKeys, `{"x": "{a: 1}"}`, `{"x": "{a: 1}"}`},
		{"unicode key", RepairQuoteKeys, `{名字: "李"}`, `{"名字": "李"}`},
		{"literals", RepairNormalizeLiterals, `{"a": True, "b": FALSE, "c": None}`, `{"a": true, "b": false, "c": null}`},
		{"literal inside string untouched", RepairNormalizeLiterals, `{"a": "True"}`, `{"a": "True"}`},
		{"trailing commas", RepairStripTrailingCommas, `{"a": [1, 2, ], "b": 3 ,}`, `{"a": [1, 2 ], "b": 3 }`},
		{"comma inside string untouched", RepairStripTrailingCommas, `{"a": ",}"}`, `{"a": ",}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.repair.Apply(tt.in))
		})
	}
}
