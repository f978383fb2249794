// Package session drives one prompt/response exchange end to end.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gemcli/internal/classify"
	"gemcli/internal/history"
)

// ErrUpstream marks a structured payload that carries an API error. The
// exchange is still logged, but the process should exit non-zero.
var ErrUpstream = errors.New("model API returned an error")

// ErrEmptyResponse marks a response with no payload at all. Nothing is
// logged for it.
var ErrEmptyResponse = errors.New("empty response from model API")

// Generator is the external API call collaborator.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) ([]byte, error)
}

// Driver orchestrates call, classification, logging, and output for a
// single invocation.
type Driver struct {
	client Generator
	store  *history.Store
	out    io.Writer
	errOut io.Writer
}

// New returns a driver writing the answer to out and diagnostics to
// errOut. Nil writers default to stdout/stderr.
func New(client Generator, store *history.Store, out, errOut io.Writer) *Driver {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Driver{client: client, store: store, out: out, errOut: errOut}
}

// Run performs one request/response cycle: a single API call with no
// retries, classification, a history append for any non-empty payload
// (API errors included), and the user-facing answer. A transport failure
// or empty response skips logging entirely; a logging failure never
// suppresses the answer.
func (d *Driver) Run(ctx context.Context, model, prompt string) error {
	raw, err := d.client.Generate(ctx, model, prompt)
	if err != nil {
		return fmt.Errorf("call model API: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return ErrEmptyResponse
	}

	res := classify.Classify(raw)

	if err := d.store.Append(model, prompt, res); err != nil {
		fmt.Fprintf(d.errOut, "warning: could not record exchange: %v\n", err)
	}

	return d.printAnswer(res)
}

func (d *Driver) printAnswer(res classify.Classified) error {
	if res.Kind == classify.KindOpaque {
		fmt.Fprintln(d.errOut, "The model returned a non-JSON response:")
		fmt.Fprintln(d.out, res.Raw)
		return nil
	}

	if classify.IsError(res.Raw) {
		if msg := classify.ErrorMessage(res.Raw); msg != "" {
			return fmt.Errorf("%w: %s", ErrUpstream, msg)
		}
		return ErrUpstream
	}

	text := classify.ExtractText(res.Raw)
	if text == "" {
		fmt.Fprintln(d.errOut, "The response contained no answer text.")
		return nil
	}
	fmt.Fprintln(d.out, text)
	return nil
}
