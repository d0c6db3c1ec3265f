// Package stimuli загружает списки стимулов из CSV-файлов вида likert_<N>.csv.
package stimuli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

const filePrefix = "likert_"

// LoadDir читает все likert_<N>.csv из dir и возвращает списки, упорядоченные по N.
func LoadDir(dir string) ([]domain.StimulusList, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob stimuli: %w", err)
	}

	type indexed struct {
		idx  int
		list domain.StimulusList
	}
	loaded := make([]indexed, 0, len(paths))
	for _, path := range paths {
		idx, err := listIndex(path)
		if err != nil {
			return nil, err
		}
		items, err := readFile(path)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, indexed{
			idx:  idx,
			list: domain.StimulusList{Idx: strconv.Itoa(idx), Items: items},
		})
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].idx < loaded[j].idx })

	lists := make([]domain.StimulusList, len(loaded))
	for i, l := range loaded {
		lists[i] = l.list
	}
	return lists, nil
}

func listIndex(path string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx, err := strconv.Atoi(strings.TrimPrefix(stem, filePrefix))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %s: bad list index", domain.ErrInvalidStimuliFile, path)
	}
	return idx, nil
}

func readFile(path string) ([]domain.Stimulus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Read разбирает CSV с заголовком: каждая строка становится объектом,
// числовые значения становятся числами, пустые - null.
func Read(r io.Reader) ([]domain.Stimulus, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Stimulus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidStimuliFile, err)
	}

	items := []domain.Stimulus{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidStimuliFile, err)
		}
		item := make(domain.Stimulus, len(header))
		for i, column := range header {
			item[column] = parseValue(record[i])
		}
		items = append(items, item)
	}
	return items, nil
}

func parseValue(raw string) any {
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	// NaN и Inf не представимы в JSON и остаются строками
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	switch raw {
	case "True", "true":
		return true
	case "False", "false":
		return false
	}
	return raw
}
