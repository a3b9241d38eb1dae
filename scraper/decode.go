package scraper

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// DecodeFunc turns the byte stream of one iteration session into records.
type DecodeFunc[T any] func(r io.Reader) iter.Seq2[T, error]

// SkipLine is returned by a line parser to drop a line, such as a column
// header, without yielding anything.
var SkipLine = errors.New("skip this line")

// FixedRecords decodes a stream of size-byte records written with
// bpf_seq_write. A trailing partial record is reported as a *[DecodeError].
func FixedRecords[T any](size int, parse func(b []byte) (T, error)) DecodeFunc[T] {
	return func(r io.Reader) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			var zero T
			buf := make([]byte, size)
			br := bufio.NewReader(r)

			for i := 0; ; i++ {
				_, err := io.ReadFull(br, buf)
				switch {
				case err == io.EOF:
					return
				case errors.Is(err, io.ErrUnexpectedEOF):
					yield(zero, &DecodeError{Index: i, Err: fmt.Errorf("truncated record: %w", err)})
					return
				case err != nil:
					yield(zero, fmt.Errorf("read record %d: %w", i, err))
					return
				}

				rec, err := parse(buf)
				if err != nil {
					if !yield(zero, &DecodeError{Index: i, Err: err}) {
						return
					}
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Lines decodes newline-separated text written with BPF_SEQ_PRINTF.
// Blank lines are ignored and parse errors become *[DecodeError] values.
// A *DecodeError returned by parse is copied with its Index set; any other
// error, wrapped ones included, is wrapped in a new DecodeError for the line.
func Lines[T any](parse func(line string) (T, error)) DecodeFunc[T] {
	return func(r io.Reader) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			var zero T
			scanner := bufio.NewScanner(r)

			for n := 0; scanner.Scan(); n++ {
				line := scanner.Text()
				if strings.TrimSpace(line) == "" {
					continue
				}

				rec, err := parse(line)
				if errors.Is(err, SkipLine) {
					continue
				}
				if err != nil {
					de, ok := err.(*DecodeError)
					if ok {
						d := *de
						d.Index = n
						de = &d
					} else {
						de = &DecodeError{Index: n, Input: line, Err: err}
					}
					if !yield(zero, de) {
						return
					}
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
			if err := scanner.Err(); err != nil {
				yield(zero, fmt.Errorf("read lines: %w", err))
			}
		}
	}
}

// cString returns the NUL-terminated prefix of b, or "" if it is not valid
// UTF-8.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}
