// Command genfixtures writes miniature raw dataset files for local testing,
// laid out the way the real distributions unpack.
package main

import (
	"compress/gzip"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
)

func main() {
	dir := flag.String("dir", "testdata", "directory to write fixtures into")
	rows := flag.Int("rows", 32, "examples per split")
	flag.Parse()

	rng := rand.New(rand.NewSource(42))

	if err := writeMNIST(*dir, *rows, rng); err != nil {
		log.Fatalf("mnist: %v", err)
	}
	if err := writeCIFAR10(*dir, *rows, rng); err != nil {
		log.Fatalf("cifar10: %v", err)
	}
	if err := writeCIFAR100(*dir, *rows, rng); err != nil {
		log.Fatalf("cifar100: %v", err)
	}
	if err := writeIris(*dir, *rows); err != nil {
		log.Fatalf("iris: %v", err)
	}
	if err := writeWine(*dir, *rows); err != nil {
		log.Fatalf("wine: %v", err)
	}

	fmt.Printf("fixtures written to %s\n", *dir)
}

func writeMNIST(dir string, rows int, rng *rand.Rand) error {
	files := map[string]struct {
		images bool
		count  int
	}{
		"train-images-idx3-ubyte.gz": {true, rows},
		"train-labels-idx1-ubyte.gz": {false, rows},
		"t10k-images-idx3-ubyte.gz":  {true, rows / 2},
		"t10k-labels-idx1-ubyte.gz":  {false, rows / 2},
	}
	for name, f := range files {
		var payload []byte
		if f.images {
			payload = make([]byte, 16+f.count*28*28)
			binary.BigEndian.PutUint32(payload[0:4], 0x00000803)
			binary.BigEndian.PutUint32(payload[4:8], uint32(f.count))
			binary.BigEndian.PutUint32(payload[8:12], 28)
			binary.BigEndian.PutUint32(payload[12:16], 28)
			rng.Read(payload[16:])
		} else {
			payload = make([]byte, 8+f.count)
			binary.BigEndian.PutUint32(payload[0:4], 0x00000801)
			binary.BigEndian.PutUint32(payload[4:8], uint32(f.count))
			for i := 0; i < f.count; i++ {
				payload[8+i] = byte(rng.Intn(10))
			}
		}
		if err := writeGzip(filepath.Join(dir, name), payload); err != nil {
			return err
		}
	}
	return nil
}

func writeCIFAR10(dir string, rows int, rng *rand.Rand) error {
	sub := filepath.Join(dir, "cifar-10-batches-bin")
	perBatch := rows / 5
	if perBatch == 0 {
		perBatch = 1
	}
	for i := 1; i <= 5; i++ {
		name := filepath.Join(sub, fmt.Sprintf("data_batch_%d.bin", i))
		if err := writeCIFARFile(name, perBatch, 1, rng); err != nil {
			return err
		}
	}
	return writeCIFARFile(filepath.Join(sub, "test_batch.bin"), perBatch, 1, rng)
}

func writeCIFAR100(dir string, rows int, rng *rand.Rand) error {
	sub := filepath.Join(dir, "cifar-100-binary")
	if err := writeCIFARFile(filepath.Join(sub, "train.bin"), rows, 2, rng); err != nil {
		return err
	}
	return writeCIFARFile(filepath.Join(sub, "test.bin"), rows/2, 2, rng)
}

func writeCIFARFile(path string, rows, labelBytes int, rng *rand.Rand) error {
	payload := make([]byte, rows*(labelBytes+3*32*32))
	rng.Read(payload)
	rowSize := labelBytes + 3*32*32
	for i := 0; i < rows; i++ {
		for j := 0; j < labelBytes; j++ {
			payload[i*rowSize+j] = byte(rng.Intn(100))
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0644)
}

func writeIris(dir string, rows int) error {
	classes := []string{"Iris-setosa", "Iris-versicolor", "Iris-virginica"}
	var out []byte
	for i := 0; i < rows; i++ {
		line := fmt.Sprintf("%.1f,%.1f,%.1f,%.1f,%s\n",
			4.0+float64(i%30)*0.1, 2.0+float64(i%20)*0.1,
			1.0+float64(i%50)*0.1, 0.1+float64(i%24)*0.1,
			classes[i%len(classes)])
		out = append(out, line...)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "iris.data"), out, 0644)
}

func writeWine(dir string, rows int) error {
	var out []byte
	for i := 0; i < rows; i++ {
		line := fmt.Sprintf("%d,14.2,1.7,2.4,15.6,127,2.8,3.06,.28,2.29,5.64,1.04,3.92,1065\n", i%3+1)
		out = append(out, line...)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "wine.data"), out, 0644)
}

func writeGzip(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write(payload); err != nil {
		return err
	}
	return gz.Close()
}
