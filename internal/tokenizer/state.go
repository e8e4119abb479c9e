package tokenizer

// State identifies a tokenizer state.
type State int

const (
	Initial State = iota
	LeftBracketSeen
	TagOpen
	TagName
	TagArgsOpenParen
	TagArgsCloseParen
	ArgSingleQuoted
	ArgDoubleQuotedFenceProbe
	ArgDoubleQuoted
	AfterArgValue
	TagClosing
	RawBlock
	CommentBlock
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Initial:
		return "Initial"
	case LeftBracketSeen:
		return "LeftBracketSeen"
	case TagOpen:
		return "TagOpen"
	case TagName:
		return "TagName"
	case TagArgsOpenParen:
		return "TagArgsOpenParen"
	case TagArgsCloseParen:
		return "TagArgsCloseParen"
	case ArgSingleQuoted:
		return "ArgSingleQuoted"
	case ArgDoubleQuotedFenceProbe:
		return "ArgDoubleQuotedFenceProbe"
	case ArgDoubleQuoted:
		return "ArgDoubleQuoted"
	case AfterArgValue:
		return "AfterArgValue"
	case TagClosing:
		return "TagClosing"
	case RawBlock:
		return "RawBlock"
	case CommentBlock:
		return "CommentBlock"
	default:
		return "Unknown"
	}
}

func isTagNameChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func isSeparator(r rune) bool {
	return r == '\t' || r == '\n' || r == '\f' || r == ' '
}
