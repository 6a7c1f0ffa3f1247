package converters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hopperdata/hopper/config"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/pkg/readers"
)

// Directory names inside the extracted binary distributions.
const (
	cifar10Dir  = "cifar-10-batches-bin"
	cifar100Dir = "cifar-100-binary"
)

// ConvertCIFAR10 converts the CIFAR-10 binary batch files into a single
// artifact. The five training batches become the train split, test_batch.bin
// the test split.
func ConvertCIFAR10(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	dir := filepath.Join(resolveDirectory(opts), cifar10Dir)
	outPath, format := resolveOutput(opts, "cifar10")

	trainFiles := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		trainFiles = append(trainFiles, fmt.Sprintf("data_batch_%d.bin", i))
	}

	plans, inputs, err := cifarPlans(dir, "cifar10", trainFiles, []string{"test_batch.bin"})
	if err != nil {
		return nil, err
	}
	return writeArtifact(ctx, "cifar10", outPath, format, plans, inputs)
}

// ConvertCIFAR100 converts the CIFAR-100 binary train/test files into a
// single artifact with coarse and fine label columns.
func ConvertCIFAR100(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	dir := filepath.Join(resolveDirectory(opts), cifar100Dir)
	outPath, format := resolveOutput(opts, "cifar100")

	plans, inputs, err := cifarPlans(dir, "cifar100", []string{"train.bin"}, []string{"test.bin"})
	if err != nil {
		return nil, err
	}
	return writeArtifact(ctx, "cifar100", outPath, format, plans, inputs)
}

// cifarPlans builds the train and test split plans from the given batch
// files, one reader per file.
func cifarPlans(dir, readerType string, trainFiles, testFiles []string) ([]splitPlan, []string, error) {
	batchSize := config.Active().BatchSize

	var plans []splitPlan
	var inputs []string
	for _, split := range []struct {
		name  string
		files []string
	}{
		{"train", trainFiles},
		{"test", testFiles},
	} {
		plan := splitPlan{name: split.name}
		for _, file := range split.files {
			path := filepath.Join(dir, file)
			if _, err := os.Stat(path); err != nil {
				closePlans(append(plans, plan))
				return nil, nil, fmt.Errorf("required file not found: %s", path)
			}

			reader, err := readers.DefaultFactory.Create(core.ReaderConfig{
				Type:      readerType,
				Path:      path,
				BatchSize: batchSize,
			})
			if err != nil {
				closePlans(append(plans, plan))
				return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
			}

			counter, ok := reader.(rowCounter)
			if !ok {
				reader.Close()
				closePlans(append(plans, plan))
				return nil, nil, fmt.Errorf("cifar reader does not report row counts")
			}

			plan.readers = append(plan.readers, reader)
			plan.rows += counter.TotalRows()
			inputs = append(inputs, path)
		}
		plans = append(plans, plan)
	}

	return plans, inputs, nil
}
