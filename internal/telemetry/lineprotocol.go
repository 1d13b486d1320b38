package telemetry

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"codeberg.org/mutker/powermon/internal/errors"
)

var (
	measurementEscaper = strings.NewReplacer(",", `\,`, " ", `\ `)
	keyEscaper         = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)
)

// EncodeLine renders m in InfluxDB line protocol:
//
//	name[,tag=value...] field=value[,field=value...] timestamp
//
// Tags and fields are sorted by key; the timestamp is in nanoseconds.
func EncodeLine(m Measurement) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(measurementEscaper.Replace(m.Name))
	for _, k := range sortedKeys(m.Tags) {
		if k == "" || m.Tags[k] == "" {
			continue
		}
		b.WriteByte(',')
		b.WriteString(keyEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(keyEscaper.Replace(m.Tags[k]))
	}
	b.WriteByte(' ')
	for i, k := range sortedKeys(m.Fields) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(keyEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(m.Fields[k], 'g', -1, 64))
	}
	if !m.Timestamp.IsZero() {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(m.Timestamp.UnixNano(), 10))
	}
	return b.String(), nil
}

// LineProtocolSink writes one line-protocol line per measurement.
type LineProtocolSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewLineProtocolSink(w io.Writer) *LineProtocolSink {
	return &LineProtocolSink{w: bufio.NewWriter(w)}
}

func (s *LineProtocolSink) Send(_ context.Context, m Measurement) error {
	line, err := EncodeLine(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(line + "\n"); err != nil {
		return errors.New().Wrap(ErrSendFailed, err)
	}
	if err := s.w.Flush(); err != nil {
		return errors.New().Wrap(ErrSendFailed, err)
	}
	return nil
}

func (s *LineProtocolSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}
	return nil
}
