package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/luheng/fupan/internal/contracts"
)

// ErrNamesMissing is returned when the name table file does not exist.
// The support-retest run treats it as fatal; the contraction scan falls
// back to placeholder names.
var ErrNamesMissing = errors.New("name table not found")

// Names maps a zero-padded instrument code to its display name. The
// table is loaded once per run and passed read-only into every worker;
// it is never mutated after LoadNames returns.
type Names map[string]string

// Lookup returns the display name for code, or the placeholder when
// the code has no entry. A nil table is a valid empty table.
func (n Names) Lookup(code string) string {
	if name, ok := n[contracts.NormalizeCode(code)]; ok {
		return name
	}
	return contracts.UnknownName
}

// LoadNames reads a code,name CSV into a lookup table. A leading BOM
// and a header row are both tolerated, codes are zero-padded, and rows
// without a name are skipped. A missing file yields ErrNamesMissing.
func LoadNames(path string) (Names, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNamesMissing, path)
		}
		return nil, fmt.Errorf("open name table: %w", err)
	}
	defer f.Close()

	names, err := ParseNamesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

// ParseNamesCSV decodes the name table from r.
func ParseNamesCSV(r io.Reader) (Names, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	names := make(Names)
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read name table: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		code := strings.TrimSpace(strings.TrimPrefix(record[0], "\uFEFF"))
		name := strings.TrimSpace(record[1])
		if first {
			first = false
			// Header row: the code column is not numeric.
			if strings.EqualFold(code, "code") || code == "代码" {
				continue
			}
		}
		if code == "" || name == "" {
			continue
		}
		names[contracts.NormalizeCode(code)] = name
	}
	return names, nil
}

// SaveNames writes the table to path as a code,name CSV with a header.
// Codes are normalized and written ascending so refreshes diff cleanly.
func SaveNames(path string, ids []contracts.Identity) error {
	rows := make([][2]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, [2]string{contracts.NormalizeCode(id.Code), id.Name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create name table: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write([]string{"code", "name"}); err != nil {
		return fmt.Errorf("write name table header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row[:]); err != nil {
			return fmt.Errorf("write name table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush name table: %w", err)
	}
	return bw.Flush()
}
