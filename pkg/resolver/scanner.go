package resolver

// TokenKind distinguishes literal text from placeholder spans.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenPlaceholder
)

func (k TokenKind) String() string {
	if k == TokenPlaceholder {
		return "placeholder"
	}
	return "literal"
}

// Token is a piece of scanned template text. Start and End are byte offsets
// into the scanned string; Raw is text[Start:End]. For placeholders Inner is
// Raw without its outer braces.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
	Raw   string
	Inner string
}

// Scan splits text into literal runs and balanced-brace placeholder spans.
// An opening brace without a matching close, and a stray closing brace, are
// kept as literal text. Scanning is linear in the length of text.
func Scan(text string) []Token {
	closes := matchBraces(text)

	var tokens []Token
	literalStart := 0
	for open := 0; open < len(text); open++ {
		closeAt, ok := closes[open]
		if !ok {
			continue
		}
		if open > literalStart {
			tokens = append(tokens, Token{
				Kind:  TokenLiteral,
				Start: literalStart,
				End:   open,
				Raw:   text[literalStart:open],
			})
		}
		tokens = append(tokens, Token{
			Kind:  TokenPlaceholder,
			Start: open,
			End:   closeAt + 1,
			Raw:   text[open : closeAt+1],
			Inner: text[open+1 : closeAt],
		})
		literalStart = closeAt + 1
		open = closeAt
	}
	if len(text) > literalStart {
		tokens = append(tokens, Token{
			Kind:  TokenLiteral,
			Start: literalStart,
			End:   len(text),
			Raw:   text[literalStart:],
		})
	}
	return tokens
}

// HasPlaceholder reports whether text contains at least one balanced span.
func HasPlaceholder(text string) bool {
	return len(matchBraces(text)) > 0
}

// matchBraces pairs every '{' with the '}' that closes it in one pass.
// Openings left on the stack at the end have no partner and stay literal.
func matchBraces(text string) map[int]int {
	var stack []int
	var closes map[int]int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if closes == nil {
				closes = make(map[int]int)
			}
			closes[open] = i
		}
	}
	return closes
}
