package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// InteractiveApprover asks the operator to type a confirmation token before a
// staging table is truncated. The comparison ignores case and surrounding spaces.
type InteractiveApprover struct {
	token  string
	input  io.Reader
	output io.Writer
}

// NewInteractiveApprover creates an approver reading from stdin and writing to stderr.
// An empty token selects bcpstage.DefaultConfirmToken.
func NewInteractiveApprover(token string) bcpstage.Approver {
	if strings.TrimSpace(token) == "" {
		token = bcpstage.DefaultConfirmToken
	}
	return &InteractiveApprover{
		token:  strings.TrimSpace(token),
		input:  os.Stdin,
		output: os.Stderr,
	}
}

// RequestApproval prompts for the token and reports whether it was typed.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, label string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, WarningBoxStyle.Render(
		WarningStyle.Render("WARNING")+": every row in "+label+" will be removed."))
	fmt.Fprintf(a.output, "Confirm TRUNCATE on %s? Type %s to continue: ", label, a.token)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		// EOF (closed stdin, Ctrl+D) is an answer like any other.
		if err != nil && err != io.EOF {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if strings.EqualFold(input, a.token) {
			fmt.Fprintln(a.output, SuccessStyle.Render(SymbolCheck+" Confirmed. Truncating "+label+"..."))
			return true, nil
		}
		fmt.Fprintln(a.output, ErrorStyle.Render(fmt.Sprintf("%s Input '%s' is not %s. Operation cancelled.", SymbolCross, input, a.token)))
		return false, nil
	}
}

var _ bcpstage.Approver = (*InteractiveApprover)(nil)
