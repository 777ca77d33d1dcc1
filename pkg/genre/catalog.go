package genre

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/cluso-genremap/pkg/validation"
)

// LoadCatalog reads a JSON array of genre records from path.
func LoadCatalog(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %v", ErrDataLoad, err)
	}
	defer f.Close()

	records, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DecodeCatalog decodes and validates a catalog. Ids and names must be unique
// because anchors are matched by name and the serving layer looks up by id.
func DecodeCatalog(r io.Reader) ([]Record, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: malformed catalog: %v", ErrDataLoad, err)
	}

	records := make([]Record, 0, len(raw))
	ids := make(map[int]bool, len(raw))
	names := make(map[string]bool, len(raw))

	for i, fields := range raw {
		for _, key := range []string{"id", "name", "description"} {
			if v, ok := fields[key]; !ok || isNull(v) {
				return nil, fmt.Errorf("%w: record %d: missing field %q", ErrDataLoad, i, key)
			}
		}

		var rec Record
		if err := json.Unmarshal(fields["id"], &rec.ID); err != nil {
			return nil, fmt.Errorf("%w: record %d: id: %v", ErrDataLoad, i, err)
		}
		if err := json.Unmarshal(fields["name"], &rec.Name); err != nil {
			return nil, fmt.Errorf("%w: record %d: name: %v", ErrDataLoad, i, err)
		}
		if err := json.Unmarshal(fields["description"], &rec.Description); err != nil {
			return nil, fmt.Errorf("%w: record %d: description: %v", ErrDataLoad, i, err)
		}
		if err := validation.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDataLoad, i, err)
		}

		if ids[rec.ID] {
			return nil, fmt.Errorf("%w: record %d: duplicate id %d", ErrDataLoad, i, rec.ID)
		}
		if names[rec.Name] {
			return nil, fmt.Errorf("%w: record %d: duplicate name %q", ErrDataLoad, i, rec.Name)
		}
		ids[rec.ID] = true
		names[rec.Name] = true
		records = append(records, rec)
	}

	return records, nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
