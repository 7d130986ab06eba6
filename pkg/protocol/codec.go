package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// LineCodec frames each JSON-RPC message as a single line of JSON, the
// framing used by the MCP stdio transport and by the engine worker.
type LineCodec struct{}

func (LineCodec) WriteObject(stream io.Writer, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = stream.Write(data)
	return err
}

func (LineCodec) ReadObject(stream *bufio.Reader, v interface{}) error {
	for {
		line, err := stream.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return json.Unmarshal(line, v)
		}
		if err != nil {
			return err
		}
	}
}
