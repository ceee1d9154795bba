package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	isTTY bool
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	isTTY := true
	if in == nil {
		in = os.Stdin
		isTTY = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:    bufio.NewReader(in),
		out:   out,
		isTTY: isTTY,
	}
}

// Enabled indicates the prompter can actually ask.
func (p *Prompter) Enabled() bool {
	return p.isTTY
}

// Choose presents the pending action and reads the 5-way answer:
// y confirm, n reject, a always for this action type, v view details
// again, q quit.
func (p *Prompter) Choose(req domain.ActionRequest, diff string) (domain.ConfirmChoice, error) {
	fmt.Fprintf(p.out, "\nPending action: %s\n", req.ActionType)
	if req.Target != "" {
		fmt.Fprintf(p.out, "Target: %s\n", req.Target)
	}
	if req.RiskLevel != "" && req.RiskLevel != domain.RiskSafe {
		fmt.Fprintf(p.out, "Risk: %s\n", strings.ToUpper(string(req.RiskLevel)))
	}
	if diff != "" {
		fmt.Fprintln(p.out, "\nProposed change:")
		fmt.Fprintln(p.out, diff)
	}

	fmt.Fprint(p.out, "Proceed? [y]es / [n]o / [a]lways / [v]iew / [q]uit: ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return domain.ChoiceReject, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return domain.ChoiceConfirm, nil
	case "a", "always":
		return domain.ChoiceAlways, nil
	case "v", "view":
		return domain.ChoiceView, nil
	case "q", "quit":
		return domain.ChoiceQuit, nil
	default:
		return domain.ChoiceReject, nil
	}
}

// ConfirmHighRisk asks a single yes/no question for a high-risk action.
func (p *Prompter) ConfirmHighRisk(req domain.ActionRequest, validation domain.ValidationResult) (bool, error) {
	fmt.Fprintf(p.out, "\nHIGH RISK action: %s\n", req.ActionType)
	if command := req.Detail("command"); command != "" {
		fmt.Fprintf(p.out, "Command:\n  %s\n", command)
	} else if req.Target != "" {
		fmt.Fprintf(p.out, "Target: %s\n", req.Target)
	}
	for _, warning := range validation.Warnings {
		fmt.Fprintf(p.out, " - %s\n", warning)
	}

	fmt.Fprint(p.out, "Continue anyway? [y/N]: ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
