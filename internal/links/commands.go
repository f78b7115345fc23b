package links

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Client commands referenced from resolved link targets.
const (
	CommandRevealInExplorer = "revealInExplorer"
	CommandOpen             = "mdls.open"
	CommandMoveCursor       = "mdls.moveCursorToPosition"
)

// CommandURI encodes a client command invocation as a command: URI whose
// query is the URL-escaped JSON argument array.
func CommandURI(command string, args ...any) string {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return "command:" + command
	}
	return "command:" + command + "?" + strings.ReplaceAll(url.QueryEscape(string(payload)), "+", "%20")
}

// ParseCommandURI splits a command: URI into its command and raw JSON arguments.
func ParseCommandURI(uri string) (string, json.RawMessage, bool) {
	rest, ok := strings.CutPrefix(uri, "command:")
	if !ok {
		return "", nil, false
	}
	command, query, _ := strings.Cut(rest, "?")
	if query == "" {
		return command, json.RawMessage("[]"), true
	}
	decoded, err := url.QueryUnescape(query)
	if err != nil {
		return "", nil, false
	}
	return command, json.RawMessage(decoded), true
}
