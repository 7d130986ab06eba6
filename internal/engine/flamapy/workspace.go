package flamapy

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

//go:embed driver.py
var driverSource []byte

const (
	modelFileName  = "model.uvl"
	driverFileName = "driver.py"
)

// workspace is the private directory a session stages its files in.
type workspace struct {
	dir       string
	modelPath string
}

func newWorkspace(parent, content string) (*workspace, error) {
	dir, err := os.MkdirTemp(parent, "fm-session-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create session workspace: %w", err)
	}

	ws := &workspace{
		dir:       dir,
		modelPath: filepath.Join(dir, modelFileName),
	}

	text, err := normalizeModel(content)
	if err != nil {
		ws.remove()
		return nil, err
	}

	if err := os.WriteFile(ws.modelPath, []byte(text), 0600); err != nil {
		ws.remove()
		return nil, fmt.Errorf("failed to write model: %w", err)
	}

	return ws, nil
}

// normalizeModel drops a leading UTF-8 byte order mark, which the UVL
// grammar would otherwise see as part of the first token.
func normalizeModel(content string) (string, error) {
	text, _, err := transform.String(unicode.UTF8BOM.NewDecoder(), content)
	if err != nil {
		return "", fmt.Errorf("failed to decode model text: %w", err)
	}
	return text, nil
}

func (w *workspace) writeDriver() (string, error) {
	path := filepath.Join(w.dir, driverFileName)
	if err := os.WriteFile(path, driverSource, 0600); err != nil {
		return "", fmt.Errorf("failed to write driver: %w", err)
	}
	return path, nil
}

func (w *workspace) remove() error {
	return os.RemoveAll(w.dir)
}
