package errors

// ErrorCategory says which part of mdls rejected a request. The CLI maps it to an
// exit code and the LSP server to a response error.
type ErrorCategory string

const (
	// CategoryConfig covers a bad mdls.yaml, .env value or command-line flag.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryFileSystem covers workspace reads, writes and file moves.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryRename carries the messages shown to the user when a rename is refused.
	CategoryRename   ErrorCategory = "rename"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity picks the log level used when the error is reported.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext holds the uri, position or path an error refers to.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}
