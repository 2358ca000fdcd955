package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/itsjashshah/flowtag/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

const (
	tagSectionTitle       = "Tag Counts:"
	portProtoSectionTitle = "Port/Protocol Combination Counts:"
)

// Render writes the report to w in the requested format.
func Render(w io.Writer, format Format, r *Report, order SortOrder) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, r, order)
	case FormatCSV, "":
		return renderCSV(w, r, order)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func renderCSV(w io.Writer, r *Report, order SortOrder) error {
	cw := csv.NewWriter(w)

	records := [][]string{{tagSectionTitle}, {"Tag", "Count"}}
	for _, row := range r.TagRows(order) {
		records = append(records, []string{row.Tag, strconv.FormatUint(row.Count, 10)})
	}

	records = append(records, []string{}, []string{portProtoSectionTitle}, []string{"Port", "Protocol", "Count"})
	for _, row := range r.PortProtoRows(order) {
		records = append(records, []string{
			strconv.FormatUint(uint64(row.Port), 10),
			row.Protocol,
			strconv.FormatUint(row.Count, 10),
		})
	}

	return cw.WriteAll(records)
}

type jsonReport struct {
	TagCounts       []TagRow       `json:"tag_counts"`
	PortProtoCounts []PortProtoRow `json:"port_protocol_counts"`
	Summary         Summary        `json:"summary"`
}

func renderJSON(w io.Writer, r *Report, order SortOrder) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		TagCounts:       r.TagRows(order),
		PortProtoCounts: r.PortProtoRows(order),
		Summary:         r.Summary,
	})
}

// WriteFile renders the report in memory and replaces path with it through a
// temporary file in the same directory, so readers never see a partial
// report. The parent directory is created when missing.
func WriteFile(path string, format Format, r *Report, order SortOrder) error {
	var buf bytes.Buffer
	if err := Render(&buf, format, r, order); err != nil {
		return models.NewPathError("render", path, models.ErrOutputWrite, err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return models.NewPathError("write", path, models.ErrOutputWrite, err)
	}
	return nil
}

func writeAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := file.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpPath)
	}()

	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
