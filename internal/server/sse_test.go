package server

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// sseDecoder reads "data:" events from a text/event-stream body.
type sseDecoder struct {
	scanner *bufio.Scanner
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{scanner: bufio.NewScanner(r)}
}

func (d *sseDecoder) next() (ProgressEvent, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev ProgressEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return ProgressEvent{}, err
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return ProgressEvent{}, err
	}
	return ProgressEvent{}, io.EOF
}
