package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Scanner reads migration files from a filesystem, usually an embed.FS.
type Scanner struct {
	pattern *regexp.Regexp
}

// NewScanner returns a scanner for {version}_{description}.sql files.
func NewScanner() *Scanner {
	return &Scanner{pattern: regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)}
}

// Scan parses every .sql file in dir of fsys and returns them ordered by
// numeric version.
func (s *Scanner) Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, NewMigrationError("", dir, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filePath := path.Join(dir, entry.Name())
		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, NewMigrationError("", filePath, "read file", err)
		}
		m, err := s.Parse(filePath, content)
		if err != nil {
			return nil, err
		}
		key, _ := strconv.Atoi(m.Version)
		if other, ok := seen[key]; ok {
			return nil, NewMigrationError(m.Version, filePath, "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, m.Version, other, filePath))
		}
		seen[key] = filePath
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})
	return migrations, nil
}

// ValidateFileName checks the {version}_{description}.sql convention.
func (s *Scanner) ValidateFileName(filename string) error {
	matches := s.pattern.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}
	if _, err := strconv.Atoi(matches[1]); err != nil {
		return fmt.Errorf("%w: version '%s' in filename '%s' is not a valid number",
			ErrInvalidVersion, matches[1], filename)
	}
	return nil
}

// Parse builds a Migration from a file name and its content.
func (s *Scanner) Parse(filePath string, content []byte) (Migration, error) {
	filename := path.Base(filePath)
	if err := s.ValidateFileName(filename); err != nil {
		return Migration{}, NewMigrationError("", filePath, "validate filename", err)
	}
	matches := s.pattern.FindStringSubmatch(filename)
	version := matches[1]

	sqlContent := string(content)
	if len(Statements(sqlContent)) == 0 {
		return Migration{}, NewMigrationError(version, filePath, "validate content",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sqlContent)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         sqlContent,
		FilePath:    filePath,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(content)),
	}, nil
}

// Statements splits a migration body on semicolons, dropping comment lines.
func Statements(sqlContent string) []string {
	var out []string
	for _, raw := range strings.Split(sqlContent, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}

func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if d, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(d)
		}
	}
	return ""
}
