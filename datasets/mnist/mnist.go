// Package mnist locates, verifies and decodes the MNIST handwritten digit dataset
package mnist

import "crypto/sha256"
import "fmt"
import "io"
import "os"
import "path/filepath"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"
import "github.com/neurlang/nncli/datasets/idx"

// Classes is the fixed number of digit classes. Decoding always one-hot
// encodes into 10 outputs even if a subset lacks some digits.
const Classes = 10

// ImgSize is the side of an MNIST image in pixels.
const ImgSize = 28

const inferSetImg = "t10k-images-idx3-ubyte.gz"
const inferSetVal = "t10k-labels-idx1-ubyte.gz"
const trainSetImg = "train-images-idx3-ubyte.gz"
const trainSetVal = "train-labels-idx1-ubyte.gz"
const inferDigImg = "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"
const inferDigVal = "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"
const trainDigImg = "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"
const trainDigVal = "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"

// TmpDirectory is searched when no directory is given.
const TmpDirectory = "/tmp/mnist/"

// Set selects the train or the test (t10k) half of the dataset.
type Set int

const (
	Train Set = iota
	Infer
)

// Pair holds the data and labels file of one set.
type Pair struct {
	Data   string
	Labels string
}

type file struct {
	name   string
	digest string
}

func (s Set) files() [2]file {
	if s == Train {
		return [2]file{{trainSetImg, trainDigImg}, {trainSetVal, trainDigVal}}
	}
	return [2]file{{inferSetImg, inferDigImg}, {inferSetVal, inferDigVal}}
}

func (s Set) String() string {
	if s == Train {
		return "train"
	}
	return "t10k"
}

// Locate finds the gz files of the set in the first directory that has both.
func Locate(set Set, dirs ...string) (Pair, error) {
	if len(dirs) == 0 {
		dirs = []string{TmpDirectory}
	}
	var lastErr error
	for _, dir := range dirs {
		files := set.files()
		pair := Pair{Data: filepath.Join(dir, files[0].name), Labels: filepath.Join(dir, files[1].name)}
		_, errData := os.Stat(pair.Data)
		_, errLabels := os.Stat(pair.Labels)
		if errData == nil && errLabels == nil {
			return pair, nil
		}
		if errData != nil {
			lastErr = errData
		} else {
			lastErr = errLabels
		}
	}
	return Pair{}, errors.Wrapf(lastErr, "mnist %s set not found", set)
}

// Verify checks the sha256 digests of the located files.
func Verify(set Set, pair Pair) error {
	files := set.files()
	for i, path := range []string{pair.Data, pair.Labels} {
		sum, err := digest(path)
		if err != nil {
			return err
		}
		if sum != files[i].digest {
			return errors.Errorf("file hash for file '%s' is incorrect", path)
		}
	}
	return nil
}

func digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open file to check file '%s'", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "cannot hash file '%s'", path)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Load locates, verifies and decodes one set with the fixed 10 class policy.
func Load(set Set, dirs ...string) (datasets.Samples, error) {
	pair, err := Locate(set, dirs...)
	if err != nil {
		return nil, err
	}
	if err := Verify(set, pair); err != nil {
		return nil, err
	}
	return idx.Decode(pair.Data, pair.Labels, idx.WithClasses(Classes))
}
