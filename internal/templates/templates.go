package templates

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed files/*
var TplFS embed.FS

// WriteTpl loads tplName from the embedded FS, executes it with data, and
// writes the result to outPath.
func WriteTpl(tplName, outPath string, data any) error {
	rendered, err := RenderTpl(tplName, data)
	if err != nil {
		return err
	}

	err = os.WriteFile(outPath, rendered, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// RenderTpl loads tplName from the embedded FS and executes it with data.
func RenderTpl(tplName string, data any) ([]byte, error) {
	t := template.New(filepath.Base(tplName))

	t, err := t.ParseFS(TplFS, tplName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", tplName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", tplName, err)
	}
	return buf.Bytes(), nil
}
