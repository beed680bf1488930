package ticksource

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"quant-replayv1/internal/model"
)

// readDataset walks a partitioned dataset root laid out as
// root/<source>/<tradingday>/<instrument>/<rowgroup>.csv, reads every
// row-group with the flat-file schema, and merges the result into one
// stream ordered by tick timestamp. Partition physical order does not
// matter: the merge sorts by wall-clock time, stable within equal
// timestamps so each instrument's intra-file order is preserved.
func readDataset(root string) ([]model.Tick, error) {
	files, err := collectRowGroups(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no row-group files under %s", ErrNotFound, root)
	}

	var ticks []model.Tick
	for _, path := range files {
		fr, err := openFlatFile(path)
		if err != nil {
			return nil, err
		}
		for {
			tick, ok, err := fr.next()
			if err != nil {
				fr.close()
				return nil, fmt.Errorf("dataset %s: %w", path, err)
			}
			if !ok {
				break
			}
			ticks = append(ticks, tick)
		}
		fr.close()
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp() < ticks[j].Timestamp()
	})

	log.Printf("[ticksource] dataset %s: %d row-groups, %d ticks", root, len(files), len(ticks))
	return ticks, nil
}

// collectRowGroups returns every leaf row-group file under the dataset
// root, sorted lexically for a deterministic read order.
func collectRowGroups(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
