package logging

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// LineInterceptor implements io.Writer, prefixing each complete line
// written to it with a sequence number and timestamp before forwarding to
// target. Used for the file handler, whose slog.TextHandler is configured
// to drop its own time attribute since this adds one already.
type LineInterceptor struct {
	target   io.Writer
	sequence atomic.Uint64
	buf      bytes.Buffer
}

// NewLineInterceptor wraps target.
func NewLineInterceptor(target io.Writer) *LineInterceptor {
	return &LineInterceptor{target: target}
}

func (i *LineInterceptor) writeLine(line []byte) (int, error) {
	n := i.sequence.Add(1)
	prefix := slog.Uint64("line", n).String() + " " + slog.String("time", time.Now().Format(time.RFC3339)).String() + " "
	total, err := io.WriteString(i.target, prefix)
	if err != nil {
		return total, err
	}
	written, err := i.target.Write(line)
	total += written
	return total, err
}

// Write implements io.Writer. Every line p contains, including a trailing
// one with no terminating newline, is flushed to target immediately.
func (i *LineInterceptor) Write(p []byte) (int, error) {
	if _, err := i.buf.Write(p); err != nil {
		return 0, err
	}

	total := 0
	scanner := bufio.NewScanner(&i.buf)
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		n, err := i.writeLine(append(scanner.Bytes(), '\n'))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close flushes any bytes written between the last newline and a final
// Write call that never arrived. Write already flushes every line it sees,
// partial or not, so this is only a backstop.
func (i *LineInterceptor) Close() error {
	if i.buf.Len() == 0 {
		return nil
	}
	remaining := i.buf.Bytes()
	i.buf.Reset()
	_, err := i.writeLine(remaining)
	return err
}
