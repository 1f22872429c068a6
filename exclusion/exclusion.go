// Package exclusion loads the deny-list of numbers dropped before a call log
// is processed. A list is either a text file with one number per line or a
// read-only sqlite database.
package exclusion

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jalad-shrimali/callreport/calllog"
)

// Options controls how list entries are read and normalized.
type Options struct {
	NumberLength int
	// Table and Column locate the numbers in a sqlite list.
	Table  string
	Column string
}

// DefaultOptions matches the pipeline defaults.
func DefaultOptions() Options {
	return Options{NumberLength: 9, Table: "excluded_numbers", Column: "number"}
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsDatabase reports whether path names a sqlite list.
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Load builds the exclusion set from path. An empty path or a missing file
// yields an empty set and no error. Any other failure yields an empty set and
// a calllog ExclusionUnavailable error, which callers report as a warning.
func Load(ctx context.Context, path string, opts Options, logger *slog.Logger) (calllog.NumberSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return calllog.NumberSet{}, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Info("exclusion list not found, no numbers excluded", slog.String("path", path))
		return calllog.NumberSet{}, nil
	}

	var (
		raw []string
		err error
	)
	if IsDatabase(path) {
		raw, err = readDatabase(ctx, path, opts)
	} else {
		raw, err = readText(path)
	}
	if err != nil {
		logger.Warn("exclusion list unreadable, continuing without exclusions",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return calllog.NumberSet{}, calllog.NewExclusionUnavailable(path, err)
	}

	set := calllog.NewNumberSet(raw, opts.NumberLength)
	logger.Info("exclusion list loaded",
		slog.String("path", path),
		slog.Int("entries", len(raw)),
		slog.Int("numbers", len(set)))
	return set, nil
}

// ReadList parses a text list: every non-blank line is one raw number.
func ReadList(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func readText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadList(f)
}

func readDatabase(ctx context.Context, path string, opts Options) ([]string, error) {
	if !identRE.MatchString(opts.Table) || !identRE.MatchString(opts.Column) {
		return nil, fmt.Errorf("invalid table/column %q/%q", opts.Table, opts.Column)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("cannot open exclusion db: %w", err)
	}
	defer db.Close()

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`, opts.Column, opts.Table, opts.Column)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n sql.NullString
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n.String)
	}
	return out, rows.Err()
}
