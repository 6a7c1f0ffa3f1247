package converters

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hopperdata/hopper/config"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/pkg/readers"
)

// MNIST distribution file names. The .gz variants the dataset is published
// as are picked up automatically.
const (
	mnistTrainImages = "train-images-idx3-ubyte"
	mnistTrainLabels = "train-labels-idx1-ubyte"
	mnistTestImages  = "t10k-images-idx3-ubyte"
	mnistTestLabels  = "t10k-labels-idx1-ubyte"
)

// ConvertMNIST converts the raw MNIST IDX files into a single artifact with
// train and test splits recorded in the schema metadata.
func ConvertMNIST(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	dir := resolveDirectory(opts)
	outPath, format := resolveOutput(opts, "mnist")
	batchSize := config.Active().BatchSize

	var plans []splitPlan
	var inputs []string
	for _, split := range []struct {
		name   string
		images string
		labels string
	}{
		{"train", mnistTrainImages, mnistTrainLabels},
		{"test", mnistTestImages, mnistTestLabels},
	} {
		imagePath, err := requireFile(filepath.Join(dir, split.images))
		if err != nil {
			closePlans(plans)
			return nil, err
		}
		labelPath, err := requireFile(filepath.Join(dir, split.labels))
		if err != nil {
			closePlans(plans)
			return nil, err
		}

		reader, err := readers.DefaultFactory.Create(core.ReaderConfig{
			Type:      "idx",
			Path:      imagePath,
			LabelPath: labelPath,
			BatchSize: batchSize,
		})
		if err != nil {
			closePlans(plans)
			return nil, fmt.Errorf("failed to open %s split: %w", split.name, err)
		}

		counter, ok := reader.(rowCounter)
		if !ok {
			reader.Close()
			closePlans(plans)
			return nil, fmt.Errorf("idx reader does not report row counts")
		}

		plans = append(plans, splitPlan{
			name:    split.name,
			readers: []core.DatasetReader{reader},
			rows:    counter.TotalRows(),
		})
		inputs = append(inputs, imagePath, labelPath)
	}

	return writeArtifact(ctx, "mnist", outPath, format, plans, inputs)
}
