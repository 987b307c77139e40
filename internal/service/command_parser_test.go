package service

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMovements(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name       string
		input      string
		kind       CommandKind
		amount     string
		accountID  int64
		categoryID int64
		memo       string
	}{
		{
			name:       "expense with decimals",
			input:      "- 25.50 1 5 taxi",
			kind:       CommandExpense,
			amount:     "25.50",
			accountID:  1,
			categoryID: 5,
			memo:       "taxi",
		},
		{
			name:       "income with multi-word memo",
			input:      "+ 100 2 10 salary bonus",
			kind:       CommandIncome,
			amount:     "100",
			accountID:  2,
			categoryID: 10,
			memo:       "salary bonus",
		},
		{
			name:       "comma decimal separator",
			input:      "egreso 12,75 3 7 almuerzo",
			kind:       CommandExpense,
			amount:     "12.75",
			accountID:  3,
			categoryID: 7,
			memo:       "almuerzo",
		},
		{
			name:       "keyword case and diacritics ignored",
			input:      "  INGRESO   80   1  2   venta de libros ",
			kind:       CommandIncome,
			amount:     "80",
			accountID:  1,
			categoryID: 2,
			memo:       "venta de libros",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parser.Parse(tt.input)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.True(t, cmd.Amount.Equal(decimal.RequireFromString(tt.amount)),
				"amount %s != %s", cmd.Amount, tt.amount)
			assert.Equal(t, tt.accountID, cmd.AccountID)
			assert.Equal(t, tt.categoryID, cmd.CategoryID)
			assert.Equal(t, tt.memo, cmd.Memo)
		})
	}
}

func TestParseTransfers(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name   string
		input  string
		amount string
		src    int64
		dst    int64
		memo   string
	}{
		{"compact arrow form", "t 50 1>2 rent share", "50", 1, 2, "rent share"},
		{"spaced form", "transferencia 200.25 3 4 ahorro mensual", "200.25", 3, 4, "ahorro mensual"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parser.Parse(tt.input)
			require.NotNil(t, cmd)
			assert.Equal(t, CommandTransfer, cmd.Kind)
			assert.True(t, cmd.Amount.Equal(decimal.RequireFromString(tt.amount)))
			assert.Equal(t, tt.src, cmd.SourceAccountID)
			assert.Equal(t, tt.dst, cmd.DestAccountID)
			assert.Equal(t, tt.memo, cmd.Memo)
		})
	}
}

func TestParseHelp(t *testing.T) {
	parser := NewCommandParser()

	for _, input := range []string{"ayuda", "help", "?", "AYUDA"} {
		cmd := parser.Parse(input)
		require.NotNil(t, cmd, "input %q", input)
		assert.Equal(t, CommandHelp, cmd.Kind)
	}
}

func TestParseRejections(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name  string
		input string
	}{
		{"bad amount", "egreso abc 1 5 taxi"},
		{"negative amount", "- -10 1 5 taxi"},
		{"zero amount", "- 0 1 5 taxi"},
		{"three decimal digits", "- 10.505 1 5 taxi"},
		{"scientific notation", "- 1e3 1 5 taxi"},
		{"bad account id", "- 10 x 5 taxi"},
		{"zero account id", "- 10 0 5 taxi"},
		{"missing memo", "- 10 1 5"},
		{"missing fields", "- 10"},
		{"unknown keyword", "pago 10 1 5 taxi"},
		{"transfer to same token garbage", "t 50 1>2>3 rent"},
		{"transfer bad dest", "t 50 1 x rent"},
		{"transfer missing memo", "t 50 1>2"},
		{"empty", ""},
		{"whitespace only", "   \t  \n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, parser.Parse(tt.input))
		})
	}
}

// Parse must be total: anything the channel delivers yields a command or nil.
func TestParseNeverPanics(t *testing.T) {
	parser := NewCommandParser()

	inputs := []string{
		"",
		"\x00\x01\x02",
		strings.Repeat("a ", 10_000),
		"😀 💸 🏦",
		"- ‮25.50 1 5 taxi",
		"ingreso ١٢٣ 1 5 memo",
		"t 9999999999999999999999999 1>2 overflow",
		"+ 10 99999999999999999999 5 overflow account",
		"���",
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() {
			_ = parser.Parse(input)
			_ = parser.IsGreeting(input)
			_ = parser.IsCloseIntent(input)
			_ = parser.IsContinueIntent(input)
		})
	}
}

func TestClassifiers(t *testing.T) {
	parser := NewCommandParser()

	assert.True(t, parser.IsGreeting("Hola"))
	assert.True(t, parser.IsGreeting("  BUENAS  "))
	assert.False(t, parser.IsGreeting("hola que tal todo"))

	assert.True(t, parser.IsCloseIntent("no"))
	assert.True(t, parser.IsCloseIntent("Listo"))
	assert.True(t, parser.IsCloseIntent("nada más"))
	assert.False(t, parser.IsCloseIntent("nope"))

	assert.True(t, parser.IsContinueIntent("sí"))
	assert.True(t, parser.IsContinueIntent("otra"))
	assert.False(t, parser.IsContinueIntent("tal vez"))
}
