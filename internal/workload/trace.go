// Package workload reads, writes, generates and replays allocation traces:
// the sequence of allocator-hook calls an interpreter makes.
//
// A trace is plain text, one operation per line:
//
//	# comment
//	a <id> <size>   allocate size bytes and name the result id
//	r <id> <size>   resize allocation id to size bytes
//	f <id>          free allocation id
//
// Ids are chosen by the trace writer; the replayer maps them to live buffers
// and supplies each allocation's size on free, the way an interpreter does.
package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	commentPrefix = "#"

	// scannerMaxLineSize bounds a single trace line.
	scannerMaxLineSize = 64 * 1024
)

// ErrSyntax indicates a malformed trace line.
var ErrSyntax = errors.New("workload: syntax error")

// Kind is the type of a trace operation.
type Kind uint8

const (
	KindAlloc   Kind = 'a'
	KindRealloc Kind = 'r'
	KindFree    Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "alloc"
	case KindRealloc:
		return "realloc"
	case KindFree:
		return "free"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation. Size is unused for KindFree.
type Op struct {
	Kind Kind
	ID   int
	Size int
}

// ParseError locates a syntax error in a trace.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads a trace. Input may be UTF-8 or, when it starts with a byte
// order mark, UTF-16; traces exported by Windows tooling are often the latter.
func Parse(r io.Reader) ([]Op, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 4096), scannerMaxLineSize)

	var ops []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		op, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Err: err}
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workload: read trace: %w", err)
	}
	return ops, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
	}

	op := Op{Kind: Kind(fields[0][0])}
	want := 3
	switch op.Kind {
	case KindAlloc, KindRealloc:
	case KindFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: %s takes %d fields, got %d", ErrSyntax, op.Kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("%w: bad id %q", ErrSyntax, fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 1 {
			// Zero would mean "free" to an interpreter hook.
			return Op{}, fmt.Errorf("%w: bad size %q", ErrSyntax, fields[2])
		}
		op.Size = size
	}
	return op, nil
}

// Write emits ops in trace format.
func Write(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	for _, op := range ops {
		var err error
		switch op.Kind {
		case KindFree:
			_, err = fmt.Fprintf(bw, "f %d\n", op.ID)
		case KindAlloc, KindRealloc:
			_, err = fmt.Fprintf(bw, "%c %d %d\n", op.Kind, op.ID, op.Size)
		default:
			err = fmt.Errorf("%w: cannot write %s", ErrSyntax, op.Kind)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
