package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

type CommandKind string

const (
	CommandIncome   CommandKind = "income"
	CommandExpense  CommandKind = "expense"
	CommandTransfer CommandKind = "transfer"
	CommandHelp     CommandKind = "help"
)

// Command is the typed result of parsing one chat line. For income/expense
// commands AccountID/CategoryID are set; for transfers SourceAccountID and
// DestAccountID are set instead.
type Command struct {
	Kind            CommandKind
	Amount          decimal.Decimal
	AccountID       int64
	CategoryID      int64
	SourceAccountID int64
	DestAccountID   int64
	Memo            string
}

var (
	incomeKeywords   = map[string]bool{"+": true, "ingreso": true, "income": true}
	expenseKeywords  = map[string]bool{"-": true, "egreso": true, "gasto": true, "expense": true}
	transferKeywords = map[string]bool{"t": true, "transferencia": true, "transfer": true}
	helpKeywords     = map[string]bool{"?": true, "ayuda": true, "help": true}

	greetings = map[string]bool{
		"hola": true, "buenas": true, "buenos dias": true, "buenas tardes": true,
		"buenas noches": true, "hello": true, "hi": true, "hey": true,
	}
	closeIntents = map[string]bool{
		"no": true, "listo": true, "gracias": true, "chau": true, "chao": true,
		"done": true, "bye": true, "nada mas": true,
	}
	continueIntents = map[string]bool{
		"si": true, "yes": true, "otra": true, "otro": true, "another": true, "more": true,
	}

	amountPattern = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)
	idPattern     = regexp.MustCompile(`^\d+$`)
)

// CommandParser turns raw channel text into structured ledger commands. It is
// stateless and total: any input yields a Command or nil, never a panic.
type CommandParser struct{}

func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// Parse returns the typed command encoded in raw, or nil when the text is not
// a well-formed command.
//
// Grammar:
//
//	<income|expense kw> <amount> <accountId> <categoryId> <memo...>
//	<transfer kw> <amount> <srcId> <dstId> <memo...>
//	<transfer kw> <amount> <srcId>><dstId> <memo...>
//	<help kw>
func (p *CommandParser) Parse(raw string) *Command {
	tokens := strings.Fields(normalize(raw))
	if len(tokens) == 0 {
		return nil
	}

	keyword := tokens[0]
	switch {
	case helpKeywords[keyword]:
		return &Command{Kind: CommandHelp}
	case incomeKeywords[keyword]:
		return parseMovement(CommandIncome, tokens)
	case expenseKeywords[keyword]:
		return parseMovement(CommandExpense, tokens)
	case transferKeywords[keyword]:
		return parseTransfer(tokens)
	default:
		return nil
	}
}

// IsGreeting reports whether the text is a salutation that should trigger the
// quick-help reply.
func (p *CommandParser) IsGreeting(raw string) bool {
	return greetings[normalize(raw)]
}

// IsCloseIntent reports whether the sender wants to end the conversation.
func (p *CommandParser) IsCloseIntent(raw string) bool {
	return closeIntents[normalize(raw)]
}

// IsContinueIntent reports whether the sender wants to keep going after a
// completed operation.
func (p *CommandParser) IsContinueIntent(raw string) bool {
	return continueIntents[normalize(raw)]
}

func parseMovement(kind CommandKind, tokens []string) *Command {
	if len(tokens) < 5 {
		return nil
	}

	amount, ok := parseAmount(tokens[1])
	if !ok {
		return nil
	}
	accountID, ok := parseID(tokens[2])
	if !ok {
		return nil
	}
	categoryID, ok := parseID(tokens[3])
	if !ok {
		return nil
	}

	memo := strings.TrimSpace(strings.Join(tokens[4:], " "))
	if memo == "" {
		return nil
	}

	return &Command{
		Kind:       kind,
		Amount:     amount,
		AccountID:  accountID,
		CategoryID: categoryID,
		Memo:       memo,
	}
}

func parseTransfer(tokens []string) *Command {
	if len(tokens) < 4 {
		return nil
	}

	amount, ok := parseAmount(tokens[1])
	if !ok {
		return nil
	}

	var src, dst int64
	memoStart := 4

	if strings.Contains(tokens[2], ">") {
		// Compact arrow form: src>dst in one token, memo starts earlier.
		parts := strings.Split(tokens[2], ">")
		if len(parts) != 2 {
			return nil
		}
		if src, ok = parseID(parts[0]); !ok {
			return nil
		}
		if dst, ok = parseID(parts[1]); !ok {
			return nil
		}
		memoStart = 3
	} else {
		if len(tokens) < 5 {
			return nil
		}
		if src, ok = parseID(tokens[2]); !ok {
			return nil
		}
		if dst, ok = parseID(tokens[3]); !ok {
			return nil
		}
	}

	memo := strings.TrimSpace(strings.Join(tokens[memoStart:], " "))
	if memo == "" {
		return nil
	}

	return &Command{
		Kind:            CommandTransfer,
		Amount:          amount,
		SourceAccountID: src,
		DestAccountID:   dst,
		Memo:            memo,
	}
}

func parseAmount(token string) (decimal.Decimal, bool) {
	if !amountPattern.MatchString(token) {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

func parseID(token string) (int64, bool) {
	if !idPattern.MatchString(token) {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// normalize lowercases, strips diacritics and collapses runs of whitespace so
// keyword matching sees "Egreso", "EGRESO" and "égreso" alike.
func normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range norm.NFD.String(lowered) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
