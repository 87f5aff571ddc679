package nextversion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// versionText matches a version literal inside a file, without the "v".
const versionText = `\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?`

// StampPattern finds a version literal inside a line. The pattern captures
// the text before the version, the version and the text after it.
type StampPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// StampPatterns are the places a version is commonly declared, most specific first.
var StampPatterns = []StampPattern{
	{regexp.MustCompile(`^(\s*"version"\s*:\s*")v?(` + versionText + `)(")`), "JSON version field"},
	{regexp.MustCompile(`^(\s*version\s*=\s*")v?(` + versionText + `)(")`), "TOML version field"},
	{regexp.MustCompile(`^(\s*version\s*:\s*["']?)v?(` + versionText + `)(["']?)`), "YAML version field"},
	{regexp.MustCompile(`(?i)^(\s*(?:var\s+|const\s+)?VERSION\s*[:=]+\s*["']?)v?(` + versionText + `)(["']?)`), "VERSION assignment"},
	{regexp.MustCompile(`(<version>)v?(` + versionText + `)(</version>)`), "XML version tag"},
	{regexp.MustCompile(`(<Version>)v?(` + versionText + `)(</Version>)`), "MSBuild version property"},
}

// StampMatch is a version found in a file.
type StampMatch struct {
	Line       int // 1 based
	StartIndex int
	EndIndex   int
	Version    string
	HasV       bool
	Prefix     string
	Suffix     string
	Pattern    StampPattern
}

// FindStamps returns every declared version in the file, in file order.
func FindStamps(filePath string) ([]StampMatch, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filePath, err)
	}

	var matches []StampMatch
	for i, line := range strings.Split(string(data), "\n") {
		// The first pattern that matches a line wins so one literal is not reported twice.
		for _, sp := range StampPatterns {
			loc := sp.Pattern.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			m := StampMatch{
				Line:       i + 1,
				StartIndex: loc[0],
				EndIndex:   loc[1],
				Prefix:     line[loc[2]:loc[3]],
				Version:    line[loc[4]:loc[5]],
				Pattern:    sp,
			}
			if len(loc) >= 8 && loc[6] >= 0 {
				m.Suffix = line[loc[6]:loc[7]]
			}
			m.HasV = strings.HasPrefix(line[loc[3]:loc[4]], "v")
			matches = append(matches, m)
			break
		}
	}
	return matches, nil
}

// FindMainStamp picks the declaration most likely to be the project version:
// the least indented match, and the first of those.
// It returns nil when the file declares no version.
func FindMainStamp(filePath string) (*StampMatch, error) {
	matches, err := FindStamps(filePath)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filePath, err)
	}
	lines := strings.Split(string(data), "\n")
	best := 0
	bestIndent := indentOf(lines[matches[0].Line-1])
	for i, m := range matches[1:] {
		if indent := indentOf(lines[m.Line-1]); indent < bestIndent {
			best, bestIndent = i+1, indent
		}
	}
	return &matches[best], nil
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// ReplaceStamps writes version over each match, keeping a leading "v" where
// the file had one. Matches on the same line are applied right to left.
func ReplaceStamps(filePath string, version SemanticVersion, matches []StampMatch) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", filePath, err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	sorted := append([]StampMatch(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].StartIndex > sorted[j].StartIndex
	})

	lines := strings.Split(string(data), "\n")
	for _, m := range sorted {
		if m.Line < 1 || m.Line > len(lines) {
			continue
		}
		line := lines[m.Line-1]
		if m.StartIndex < 0 || m.EndIndex > len(line) || m.StartIndex >= m.EndIndex {
			continue
		}
		text := version.String()
		if m.HasV {
			text = "v" + text
		}
		lines[m.Line-1] = line[:m.StartIndex] + m.Prefix + text + m.Suffix + line[m.EndIndex:]
	}
	return os.WriteFile(filePath, []byte(strings.Join(lines, "\n")), info.Mode().Perm())
}

// StampFile replaces the main version declaration of a file. It reports
// false when the file declares no version.
func StampFile(filePath string, version SemanticVersion) (bool, error) {
	m, err := FindMainStamp(filePath)
	if err != nil || m == nil {
		return false, err
	}
	if err := ReplaceStamps(filePath, version, []StampMatch{*m}); err != nil {
		return false, err
	}
	return true, nil
}

// StampReport describes the effect of stamping one file.
type StampReport struct {
	File       string `json:"file" yaml:"file"`
	OldVersion string `json:"oldVersion,omitempty" yaml:"oldVersion,omitempty"`
	ModulePath string `json:"modulePath,omitempty" yaml:"modulePath,omitempty"`
	Stamped    bool   `json:"stamped" yaml:"stamped"`
}

// StampFiles stamps version into each file. A go.mod gets its module path
// major suffix updated instead. With dryRun set files are only inspected.
func StampFiles(files []string, version SemanticVersion, dryRun bool) ([]StampReport, error) {
	reports := make([]StampReport, 0, len(files))
	for _, f := range files {
		if filepath.Base(f) == "go.mod" {
			report, err := stampGoModReport(f, version, dryRun)
			if err != nil {
				return reports, err
			}
			reports = append(reports, report)
			continue
		}
		report := StampReport{File: f}
		old, err := DeclaredVersion(f)
		if err != nil {
			return reports, err
		}
		report.OldVersion = old
		if dryRun {
			// Same lookup StampFile performs, so a dry run reports what a real run would do.
			m, err := FindMainStamp(f)
			if err != nil {
				return reports, err
			}
			report.Stamped = m != nil
		} else if report.Stamped, err = StampFile(f, version); err != nil {
			return reports, fmt.Errorf("stamping %s: %w", f, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func stampGoModReport(goModPath string, version SemanticVersion, dryRun bool) (StampReport, error) {
	f, err := readGoMod(goModPath)
	if err != nil {
		return StampReport{}, err
	}
	report := StampReport{File: goModPath, ModulePath: GoModulePathFor(f.Module.Mod.Path, version)}
	if dryRun {
		report.Stamped = report.ModulePath != f.Module.Mod.Path
		return report, nil
	}
	if report.Stamped, err = StampGoModule(goModPath, version); err != nil {
		return report, fmt.Errorf("stamping %s: %w", goModPath, err)
	}
	return report, nil
}

// DeclaredVersion reads the top level version of a manifest. JSON, TOML and
// YAML files are decoded; a TOML manifest may keep it under [package] or
// [project]. Other files fall back to FindMainStamp. An empty result means no
// version is declared.
func DeclaredVersion(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading file %s: %w", filePath, err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		var doc struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("decoding %s: %w", filePath, err)
		}
		return doc.Version, nil
	case ".toml":
		var doc struct {
			Version string `toml:"version"`
			Package struct {
				Version string `toml:"version"`
			} `toml:"package"`
			Project struct {
				Version string `toml:"version"`
			} `toml:"project"`
		}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("decoding %s: %w", filePath, err)
		}
		return firstNonEmpty(doc.Version, doc.Package.Version, doc.Project.Version), nil
	case ".yaml", ".yml":
		var doc struct {
			Version string `yaml:"version"`
		}
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("decoding %s: %w", filePath, err)
		}
		return doc.Version, nil
	}

	m, err := FindMainStamp(filePath)
	if err != nil || m == nil {
		return "", err
	}
	return m.Version, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
