package transfer

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fittrack/backend/internal/domain"
)

// Format names a supported interchange encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", &domain.ValidationError{Field: "format", Reason: "must be json, xml or yaml"}
}

// FormatFromFilename derives the format from an uploaded file's extension.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ContentType returns the MIME type to serve exports under.
func (f Format) ContentType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/json"
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

func decode(r io.Reader, f Format, v interface{}) error {
	switch f {
	case FormatXML:
		return xml.NewDecoder(r).Decode(v)
	case FormatYAML:
		return yaml.NewDecoder(r).Decode(v)
	default:
		return json.NewDecoder(r).Decode(v)
	}
}

func encode(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatXML:
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// DecodePlan parses a plan archive in the given format.
func DecodePlan(r io.Reader, f Format) (*PlanArchive, error) {
	var a PlanArchive
	if err := decode(r, f, &a); err != nil {
		return nil, &domain.ValidationError{Field: "file", Reason: "malformed " + string(f) + " archive: " + err.Error()}
	}
	return &a, nil
}

// EncodePlan writes a plan archive in the given format.
func EncodePlan(w io.Writer, f Format, a *PlanArchive) error {
	return encode(w, f, a)
}

// DecodeAnalysis parses an analysis archive in the given format.
func DecodeAnalysis(r io.Reader, f Format) (*AnalysisArchive, error) {
	var a AnalysisArchive
	if err := decode(r, f, &a); err != nil {
		return nil, &domain.ValidationError{Field: "file", Reason: "malformed " + string(f) + " archive: " + err.Error()}
	}
	return &a, nil
}

// EncodeAnalysis writes an analysis archive in the given format.
func EncodeAnalysis(w io.Writer, f Format, a *AnalysisArchive) error {
	return encode(w, f, a)
}
