// Package schema handles the split metadata stamped into converted artifacts.
//
// A converted artifact is a single table holding every split of the dataset
// back to back. The boundaries are recorded as schema-level metadata entries
// of the form
//
//	hopper.split.<name> = "<start>:<stop>"
//
// with start inclusive and stop exclusive, so a downstream reader can slice
// out a split without any side file.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// MetadataPrefix prefixes every split entry in the schema metadata.
const MetadataPrefix = "hopper.split."

// DatasetKey is the metadata key recording which dataset produced the artifact.
const DatasetKey = "hopper.dataset"

// Split is a half-open row range [Start, Stop) within the artifact.
type Split struct {
	Name  string
	Start int64
	Stop  int64
}

// Rows returns the number of rows in the split.
func (s Split) Rows() int64 {
	return s.Stop - s.Start
}

func (s Split) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Name, s.Start, s.Stop)
}

// Splits is an ordered list of split ranges.
type Splits []Split

// Metadata renders the splits (plus the dataset name, if non-empty) as Arrow
// schema metadata.
func (s Splits) Metadata(dataset string) arrow.Metadata {
	keys := make([]string, 0, len(s)+1)
	values := make([]string, 0, len(s)+1)
	if dataset != "" {
		keys = append(keys, DatasetKey)
		values = append(values, dataset)
	}
	for _, split := range s {
		keys = append(keys, MetadataPrefix+split.Name)
		values = append(values, fmt.Sprintf("%d:%d", split.Start, split.Stop))
	}
	return arrow.NewMetadata(keys, values)
}

// Validate checks that every split is a well-formed range within totalRows.
func (s Splits) Validate(totalRows int64) error {
	for _, split := range s {
		if split.Start < 0 || split.Stop < split.Start {
			return fmt.Errorf("split %s: invalid range %d:%d", split.Name, split.Start, split.Stop)
		}
		if split.Stop > totalRows {
			return fmt.Errorf("split %s: range %d:%d exceeds row count %d",
				split.Name, split.Start, split.Stop, totalRows)
		}
	}
	return nil
}

// FromMetadata extracts the split ranges and the dataset name from Arrow
// schema metadata. Splits are returned sorted by start offset.
func FromMetadata(md arrow.Metadata) (Splits, string, error) {
	var splits Splits
	var dataset string

	for i, key := range md.Keys() {
		value := md.Values()[i]
		if key == DatasetKey {
			dataset = value
			continue
		}
		if !strings.HasPrefix(key, MetadataPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, MetadataPrefix)
		start, stop, err := parseRange(value)
		if err != nil {
			return nil, "", fmt.Errorf("split %s: %w", name, err)
		}
		splits = append(splits, Split{Name: name, Start: start, Stop: stop})
	}

	sort.Slice(splits, func(i, j int) bool { return splits[i].Start < splits[j].Start })
	return splits, dataset, nil
}

func parseRange(value string) (int64, int64, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed range %q", value)
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range %q: %w", value, err)
	}
	stop, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range %q: %w", value, err)
	}
	if stop < start {
		return 0, 0, fmt.Errorf("malformed range %q: stop before start", value)
	}
	return start, stop, nil
}
