package namd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simgate/simgate/pkg/process"
)

// UpdateRecords parses stdout lines written since the last call into
// records. NAMD interleaves ETITLE rows naming the energy columns with
// ENERGY rows holding their values; each ENERGY row is keyed by the most
// recent ETITLE row.
func (e *Engine) UpdateRecords(proc *process.Process, records *process.RecordSet) error {
	file, err := os.Open(proc.StdoutPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to open namd output: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(e.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek namd output: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read namd output: %w", err)
	}

	// Only consume whole lines; a partial trailing line is left for the
	// next call.
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}

	e.offset += int64(end + 1)

	for _, line := range strings.Split(string(data[:end]), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "ETITLE:":
			e.titles = fields[1:]
		case "ENERGY:":
			values := fields[1:]
			if len(values) != len(e.titles) {
				continue
			}

			for i, title := range e.titles {
				records.Append(title, values[i])
			}
		case "TIMING:":
			e.timing = fields
		}
	}

	return nil
}

// ETA returns NAMD's estimate of the remaining runtime, taken from the most
// recent TIMING row seen by UpdateRecords.
func (e *Engine) ETA() (time.Duration, bool) {
	idx := slices.Index(e.timing, "hours")
	if idx < 1 {
		return 0, false
	}

	hours, err := strconv.ParseFloat(strings.TrimSuffix(e.timing[idx-1], ","), 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(hours * float64(time.Hour)), true
}
