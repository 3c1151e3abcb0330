package gromacs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/simgate/simgate/pkg/process"
)

// energyHeader marks the start of an energy block in the mdrun log.
const energyHeader = "Energies (kJ/mol)"

// averagesMarker starts the end-of-run summary, which repeats every record
// and must not be mistaken for fresh data.
const averagesMarker = " A V E R A G E S"

// LogPath returns the mdrun log file for proc.
func LogPath(proc *process.Process) string {
	return proc.InputPath(proc.Name() + ".log")
}

// UpdateRecords parses log lines written since the last call into records.
func (e *Engine) UpdateRecords(proc *process.Process, records *process.RecordSet) error {
	file, err := os.Open(LogPath(proc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to open mdrun log: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(e.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek mdrun log: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read mdrun log: %w", err)
	}

	// Only consume whole lines; a partial trailing line is left for the
	// next call.
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}

	e.offset += int64(end + 1)

	parseEnergyLines(strings.Split(string(data[:end]), "\n"), records)

	return nil
}

// parseEnergyLines walks mdrun log lines appending thermodynamic records.
// Energy blocks hold pairs of column-aligned key and value rows; a "Step"
// header row is followed by the step and time values.
func parseEnergyLines(lines []string, records *process.RecordSet) {
	x := 0

	for x < len(lines) {
		switch {
		case strings.TrimSpace(lines[x]) == energyHeader:
			var keys, values []string

			for x+2 < len(lines) {
				kLine := lines[x+1]
				vLine := lines[x+2]

				if strings.TrimSpace(kLine) == "" || strings.TrimSpace(vLine) == "" {
					break
				}

				k, v := splitColumns(kLine, vLine)
				keys = append(keys, k...)
				values = append(values, v...)

				x += 2
			}

			if len(keys) == len(values) {
				for i := range keys {
					records.Append(normaliseKey(keys[i]), strings.TrimSpace(values[i]))
				}
			}

			x++

		case strings.Contains(strings.TrimSpace(lines[x]), "Step"):
			if x+1 < len(lines) {
				fields := strings.Fields(lines[x+1])
				if len(fields) == 2 {
					records.Append("STEP", fields[0])
					records.Append("TIME", fields[1])
				}
			}

			x += 2

		case strings.Contains(lines[x], averagesMarker):
			return

		default:
			x++
		}
	}
}

// splitColumns cuts a key row at the column boundaries of its value row. A
// boundary is where the value row goes from a character to whitespace, which
// handles keys containing spaces like "Proper Dih." and "LJ (SR)".
func splitColumns(kLine, vLine string) ([]string, []string) {
	kLine += " "
	vLine += " "

	if len(kLine) < len(vLine) {
		kLine += strings.Repeat(" ", len(vLine)-len(kLine))
	}

	var keys, values []string

	start := 0

	for idx := 0; idx+1 < len(vLine); idx++ {
		if vLine[idx] != ' ' && vLine[idx+1] == ' ' {
			keys = append(keys, kLine[start:idx+1])
			values = append(values, vLine[start:idx+1])
			start = idx + 1
		}
	}

	return keys, values
}

// normaliseKey maps a log column heading onto a record key, "Pres. DC (bar)"
// becomes PRESDC.
func normaliseKey(key string) string {
	key = strings.ToUpper(key)
	key = strings.TrimSpace(key)

	for _, cut := range []string{" ", ".", "-", "(", ")"} {
		key = strings.ReplaceAll(key, cut, "")
	}

	return strings.ReplaceAll(key, "BAR", "")
}
