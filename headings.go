package viamrectify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const headingsFile = "headings.json"

type headingRecord struct {
	Angle     float64 `json:"angle"`
	Timestamp string  `json:"timestamp"`
}

// readHeadings loads the headings index in dir, keyed by photo name without extension.
// A missing index is empty.
func readHeadings(dir string) (map[string]headingRecord, error) {
	fn := filepath.Join(dir, headingsFile)
	data, err := os.ReadFile(fn)
	if os.IsNotExist(err) {
		return map[string]headingRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	all := map[string]headingRecord{}
	err = json.Unmarshal(data, &all)
	if err != nil {
		return nil, errors.Wrapf(err, "bad headings index %s", fn)
	}
	return all, nil
}

// recordHeading adds h for the photo at path to the index next to it.
func recordHeading(path string, h headingRecord) error {
	dir := filepath.Dir(path)
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	all, err := readHeadings(dir)
	if err != nil {
		return err
	}
	all[key] = h

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmp := filepath.Join(dir, headingsFile+".tmp")
	err = os.WriteFile(tmp, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "cannot write headings index")
	}
	return os.Rename(tmp, filepath.Join(dir, headingsFile))
}
