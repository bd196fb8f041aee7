package msglog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

// Segments lists the segment files of prefix in dir, oldest first.
func Segments(dir, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = defaultFilePrefix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// Scan calls fn for every record of every segment of prefix in dir.
func Scan(ctx context.Context, dir, prefix string, opts ReaderOptions, fn func(Record) error) error {
	if fn == nil {
		return errors.Wrap(exception.ErrNilInstance, "scan handler")
	}
	files, err := Segments(dir, prefix)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := scanFile(ctx, path, opts, fn); err != nil {
			return err
		}
	}
	return nil
}

func scanFile(ctx context.Context, path string, opts ReaderOptions, fn func(Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := NewReader(file, opts)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrapf(err, "read %s", path)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
