package server

import (
	"fmt"
	"io"
	"strings"
)

// The wire protocol is newline-delimited text. A request is one line: a
// short command token optionally followed by a payload. A reply is a
// signed integer result code on its own line followed by the payload
// lines the command defines. Clients never pipeline; each command gets
// exactly one reply, except esc which closes the connection silently.

// Command tokens accepted by a session.
const (
	cmdFind  = "find"
	cmdBook  = "book"
	cmdCheck = "check"
	cmdOrder = "order"
	cmdBill  = "bill"
	cmdTake  = "take"
	cmdReady = "ready"
	cmdShow  = "show"
	cmdEsc   = "esc"
)

// parseCommand splits a request line into its command token and payload.
func parseCommand(line string) (cmd, payload string) {
	cmd, payload, _ = strings.Cut(strings.TrimSpace(line), " ")
	return cmd, strings.TrimSpace(payload)
}

// writeReply writes one reply: the result code line, then payload lines.
// The reply is built in full before writing so the client never sees a
// torn response.
func writeReply(w io.Writer, code int, lines ...string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", code)
	for _, ln := range lines {
		b.WriteString(ln)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
