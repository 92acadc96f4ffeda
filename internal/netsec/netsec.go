package netsec

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"apkmitm/internal/fileutil"
)

//go:embed nsc_mitm.xml.tmpl
var configTemplate string

var tmpl = template.Must(template.New("nsc_mitm").Funcs(sprig.TxtFuncMap()).Parse(configTemplate))

const rawCertificatePrefix = "mitm_cert_"

// Writer writes the MITM network security config into a decoded tree.
type Writer struct {
	// Certificates are PEM or DER files bundled into res/raw and trusted in
	// addition to the system and user stores.
	Certificates []string
	// Cleartext permits unencrypted HTTP traffic.
	Cleartext bool
}

type templateData struct {
	Certificates []string
	Cleartext    bool
}

// Write renders the config to path, which must live in the res/xml directory
// of a decoded tree, and copies the certificates into the sibling res/raw.
func (w Writer) Write(path string) error {
	xmlDir := filepath.Dir(path)
	if err := os.MkdirAll(xmlDir, 0o755); err != nil {
		return fmt.Errorf("create xml resource directory: %w", err)
	}

	var names []string
	if len(w.Certificates) > 0 {
		rawDir := filepath.Join(filepath.Dir(xmlDir), "raw")
		if err := os.MkdirAll(rawDir, 0o755); err != nil {
			return fmt.Errorf("create raw resource directory: %w", err)
		}
		for i, cert := range w.Certificates {
			name := fmt.Sprintf("%s%d%s", rawCertificatePrefix, i, strings.ToLower(filepath.Ext(cert)))
			if err := fileutil.CopyFile(cert, filepath.Join(rawDir, name)); err != nil {
				return fmt.Errorf("copy certificate %q: %w", cert, err)
			}
			names = append(names, name)
		}
	}

	data, err := render(templateData{Certificates: names, Cleartext: w.Cleartext})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write network security config: %w", err)
	}
	return nil
}

// render executes the config template.
func render(data templateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render network security config: %w", err)
	}
	return buf.Bytes(), nil
}
