package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxLine bounds one NDJSON message.
const maxLine = 1024 * 1024

// lineCodec reads and writes newline-delimited JSON on one stream. Writes
// are serialized; reads must come from a single goroutine.
type lineCodec struct {
	wmu     sync.Mutex
	w       io.Writer
	scanner *bufio.Scanner
}

func newLineCodec(rw io.ReadWriter) *lineCodec {
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, maxLine), maxLine)
	return &lineCodec{w: rw, scanner: scanner}
}

func (c *lineCodec) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.w.Write(data)
	return err
}

// next returns the next line. The slice is only valid until the next call.
func (c *lineCodec) next() ([]byte, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errConnClosed
	}
	return c.scanner.Bytes(), nil
}

func (c *lineCodec) read(v any) error {
	line, err := c.next()
	if err != nil {
		return err
	}
	return json.Unmarshal(line, v)
}
