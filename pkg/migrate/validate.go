package migrate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations in a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("migrate: no directory given")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks every *.sql file under dir: the name must be
// <14-digit version>_<snake_name>.sql with a unique version, and the goose
// annotations must be well formed. All problems are returned together.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrate: read %s: %w", dir, err)
	}

	var problems []error
	versions := make(map[string]string)
	found := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		found++

		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			problems = append(problems, fmt.Errorf("%s: name must look like 20260301090000_create_table.sql", name))
			continue
		}
		if other, dup := versions[m[1]]; dup {
			problems = append(problems, fmt.Errorf("%s: version %s already used by %s", name, m[1], other))
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := checkAnnotations(body); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", name, err))
		}
	}
	if found == 0 {
		return fmt.Errorf("migrate: no .sql files in %s", dir)
	}
	return errors.Join(problems...)
}

// checkAnnotations requires one Up section followed by one Down section, and
// StatementBegin/StatementEnd pairs that open and close within a section.
func checkAnnotations(body []byte) error {
	var section string
	inStatement := false
	sc := bufio.NewScanner(bytes.NewReader(body))
	for line := 1; sc.Scan(); line++ {
		directive, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "-- +goose ")
		fields := strings.Fields(directive)
		if !ok || len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "Up":
			if section != "" {
				return fmt.Errorf("line %d: Up must come first and only once", line)
			}
			section = "up"
		case "Down":
			if section != "up" || inStatement {
				return fmt.Errorf("line %d: Down must follow a closed Up section", line)
			}
			section = "down"
		case "StatementBegin":
			if section == "" || inStatement {
				return fmt.Errorf("line %d: unexpected StatementBegin", line)
			}
			inStatement = true
		case "StatementEnd":
			if !inStatement {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", line)
			}
			inStatement = false
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	switch {
	case section != "down":
		return errors.New(`needs "-- +goose Up" and "-- +goose Down" sections`)
	case inStatement:
		return errors.New("StatementBegin is never closed")
	}
	return nil
}
