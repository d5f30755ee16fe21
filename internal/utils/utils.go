package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TestData is one case of a YAML test table. Expected maps a stage name,
// such as "parse" or "eval", to the expected output of that stage.
type TestData struct {
	Label    string
	Enable   bool
	Input    string
	Expected map[string]string
}

func ReadTestData(s []byte) []TestData {
	var data []TestData
	if err := yaml.Unmarshal(s, &data); err != nil {
		panic(err)
	}

	// Remove disabled test cases.
	i := 0
	for _, d := range data {
		if d.Enable {
			data[i] = d
			i++
		}
	}
	data = data[:i]

	return data
}

// ReadTestFile reads a YAML test table from path.
func ReadTestFile(path string) ([]TestData, error) {
	s, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test data: %w", err)
	}
	return ReadTestData(s), nil
}
