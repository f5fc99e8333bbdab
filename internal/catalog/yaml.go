package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Indicators []Indicator `yaml:"indicators"`
}

// LoadYAML decodes a catalog document. Definitions are returned as written;
// callers decide whether to validate.
func LoadYAML(r io.Reader) ([]Indicator, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range doc.Indicators {
		normalizeIndicator(&doc.Indicators[i])
	}
	if len(doc.Indicators) == 0 {
		return nil, ErrEmptyCatalog
	}
	return doc.Indicators, nil
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) ([]Indicator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Default returns the embedded reference catalog.
func Default() []Indicator {
	indicators, err := LoadYAML(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return indicators
}

func normalizeIndicator(ind *Indicator) {
	ind.Code = NormalizeCode(ind.Code)
	ind.Name = strings.TrimSpace(ind.Name)
	ind.Theme = strings.TrimSpace(ind.Theme)
	ind.Pillar = Pillar(strings.ToUpper(strings.TrimSpace(string(ind.Pillar))))
	ind.Direction = Direction(strings.ToUpper(strings.TrimSpace(string(ind.Direction))))
	ind.Normalization = Normalization(strings.ToUpper(strings.TrimSpace(string(ind.Normalization))))
	ind.Interpretation = Interpretation(strings.ToUpper(strings.TrimSpace(string(ind.Interpretation))))
	for i, s := range ind.Sectors {
		ind.Sectors[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if ind.Version == 0 {
		ind.Version = 1
	}
}
