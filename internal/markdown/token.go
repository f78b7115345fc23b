package markdown

import (
	"context"

	"git.home.luguber.info/inful/mdls/internal/document"
)

// TokenType tags a block-level token.
type TokenType string

// Block token types. Only opening tokens are emitted; closing tokens carry no
// information the language features need.
const (
	TokenHeadingOpen     TokenType = "heading_open"
	TokenParagraphOpen   TokenType = "paragraph_open"
	TokenFence           TokenType = "fence"
	TokenCodeBlock       TokenType = "code_block"
	TokenHTMLBlock       TokenType = "html_block"
	TokenBlockquoteOpen  TokenType = "blockquote_open"
	TokenBulletListOpen  TokenType = "bullet_list_open"
	TokenOrderedListOpen TokenType = "ordered_list_open"
	TokenListItemOpen    TokenType = "list_item_open"
	TokenHR              TokenType = "hr"
	TokenTableOpen       TokenType = "table_open"
	TokenFrontMatter     TokenType = "front_matter"
)

// Token is a block-level construct with the lines it spans.
type Token struct {
	Type TokenType
	// Map is the zero-based [start, end) line span.
	Map [2]int
	// Markup is the construct's marker: "##", "```", "-", ">" and so on.
	Markup string
	// Content holds heading plain text, fence info strings or raw block text.
	Content string
	// Level is the heading level for heading tokens and zero otherwise.
	Level int
	// Depth is the block nesting depth, zero at document level.
	Depth int
}

// StartLine returns the first line of the token.
func (t Token) StartLine() int { return t.Map[0] }

// EndLine returns the line after the token's last line.
func (t Token) EndLine() int { return t.Map[1] }

// IsList reports whether the token opens a list or list item.
func (t Token) IsList() bool {
	return t.Type == TokenBulletListOpen || t.Type == TokenOrderedListOpen || t.Type == TokenListItemOpen
}

// Tokenizer splits a document into block tokens.
type Tokenizer interface {
	Tokenize(ctx context.Context, doc *document.Document) ([]Token, error)
}
