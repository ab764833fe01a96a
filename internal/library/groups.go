package library

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// GroupFile is the name of the optional grouping file in the served directory.
const GroupFile = "_config.toml"

// LoadGroups reads the _config.toml grouping file: section headers name the
// groups, following lines list file basenames, with or without the markdown
// extension. Entries are normalized to the extensionless stem. A missing
// file yields an empty map.
func (l *Library) LoadGroups() (map[string][]string, error) {
	path := filepath.Join(l.Root, GroupFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	groups := make(map[string][]string)
	var current string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = line[1 : len(line)-1]
			groups[current] = []string{}
			continue
		}
		if current != "" {
			// Entries may carry a markdown extension; matching is by stem.
			if IsMarkdown(line) {
				line = strings.TrimSuffix(line, filepath.Ext(line))
			}
			groups[current] = append(groups[current], line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// GroupsWithUnconfigured adds an automatic "Unconfigured" group collecting
// files missing from every explicit group. The extra group only appears when
// at least one explicit group exists.
func GroupsWithUnconfigured(groups map[string][]string, files []FileInfo) map[string][]string {
	if len(groups) == 0 {
		return groups
	}
	grouped := make(map[string]bool)
	for _, list := range groups {
		for _, f := range list {
			grouped[f] = true
		}
	}
	var rest []string
	for _, f := range files {
		base := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		if !grouped[base] {
			rest = append(rest, base)
		}
	}
	if len(rest) > 0 {
		out := make(map[string][]string, len(groups)+1)
		for k, v := range groups {
			out[k] = v
		}
		out["Unconfigured"] = rest
		return out
	}
	return groups
}
