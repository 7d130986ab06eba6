package protocol

import "io"

// StdioConn joins a read side and a write side into one io.ReadWriteCloser,
// e.g. os.Stdin/os.Stdout or a child process's stdout/stdin pipes.
type StdioConn struct {
	Reader io.ReadCloser
	Writer io.WriteCloser
}

func (s *StdioConn) Read(p []byte) (int, error) {
	return s.Reader.Read(p)
}

func (s *StdioConn) Write(p []byte) (int, error) {
	return s.Writer.Write(p)
}

func (s *StdioConn) Close() error {
	rerr := s.Reader.Close()
	werr := s.Writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
