package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/roach88/sift/internal/ruleset"
)

// loadRuleSet loads and compiles a rule-set document, mapping load
// errors to exit codes: unreadable files are command errors, invalid
// documents are validation failures.
func loadRuleSet(path string) (*ruleset.RuleSet, error) {
	rs, err := ruleset.LoadFile(path)
	if err != nil {
		var rsErr *ruleset.Error
		if errors.As(err, &rsErr) && rsErr.Code == ruleset.ErrCodeRead {
			return nil, WrapExitError(ExitCommandError, "load ruleset", err)
		}
		return nil, WrapExitError(ExitFailure, "invalid ruleset", err)
	}
	return rs, nil
}

// openInput opens an input stream; "-" or "" means stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open input", err)
	}
	return f, nil
}

// openOutput opens an output stream; "-" or "" means stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open output", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// lookupEncoding resolves an IANA charset name for --encoding.
// An empty name means UTF-8 passthrough (nil encoding).
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("unknown encoding %q", name), err)
	}
	return enc, nil
}

// decodeReader wraps r so the pipeline always sees UTF-8.
func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// encodeWriter wraps w so output is re-encoded symmetrically. The
// returned writer must be closed to flush any partial transform state;
// closing it does not close w.
func encodeWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil {
		return nopWriteCloser{w}
	}
	return transform.NewWriter(w, enc.NewEncoder())
}
