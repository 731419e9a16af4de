package redact

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadNameFile reads a name dictionary: one name per line, blank lines
// and '#' comments skipped. Used to gate the name detectors.
func LoadNameFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening name dictionary %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading name dictionary %s: %w", path, err)
	}
	return names, nil
}
