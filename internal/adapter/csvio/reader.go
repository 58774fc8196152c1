// Package csvio reads the merged daily table and writes the engine's four
// output tables with their JSON summary sidecars.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

// ReadDailyTable loads the merged daily table from a CSV file. The date
// column is mandatory; every other column is optional and reads as NaN when
// absent or empty. Indicator columns resolve through their alias lists, so
// legacy exports with per-acquisition mean columns still load. Rows come back
// sorted by date; a duplicated date is a schema error.
func ReadDailyTable(path string) ([]domain.DailyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open daily table: %w", err)
	}
	defer f.Close()
	return readDailyTable(f, path)
}

func readDailyTable(r io.Reader, name string) ([]domain.DailyRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("%s: mandatory column %q not found", name, "date")
	}

	obsCols := make([]int, len(domain.Indicators))
	fillCols := make([]int, len(domain.Indicators))
	for _, ind := range domain.Indicators {
		obsCols[ind] = resolveColumn(cols, domain.ObsColumnAliases(ind))
		fillCols[ind] = resolveColumn(cols, domain.FillColumnAliases(ind))
	}
	precipCol := resolveColumn(cols, []string{"precip_7d"})
	tmeanCol := resolveColumn(cols, []string{"tmean_7d"})
	rhCol := resolveColumn(cols, []string{"rh_7d"})
	tminCol := resolveColumn(cols, []string{"tmin_7d"})
	slopeCol := resolveColumn(cols, []string{"ndvi_slope7"})

	var table []domain.DailyRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}

		date, err := parseDate(cell(row, dateCol))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}

		rec := domain.DailyRecord{Date: date}
		for _, ind := range domain.Indicators {
			if rec.Obs[ind], err = parseValue(cell(row, obsCols[ind])); err != nil {
				return nil, fmt.Errorf("%s line %d, %s obs: %w", name, line, ind, err)
			}
			if rec.Fill[ind], err = parseValue(cell(row, fillCols[ind])); err != nil {
				return nil, fmt.Errorf("%s line %d, %s fill: %w", name, line, ind, err)
			}
		}
		if rec.Precip7d, err = parseValue(cell(row, precipCol)); err != nil {
			return nil, fmt.Errorf("%s line %d, precip_7d: %w", name, line, err)
		}
		if rec.Tmean7d, err = parseValue(cell(row, tmeanCol)); err != nil {
			return nil, fmt.Errorf("%s line %d, tmean_7d: %w", name, line, err)
		}
		if rec.RH7d, err = parseValue(cell(row, rhCol)); err != nil {
			return nil, fmt.Errorf("%s line %d, rh_7d: %w", name, line, err)
		}
		if rec.Tmin7d, err = parseValue(cell(row, tminCol)); err != nil {
			return nil, fmt.Errorf("%s line %d, tmin_7d: %w", name, line, err)
		}
		if rec.NDVISlope7, err = parseValue(cell(row, slopeCol)); err != nil {
			return nil, fmt.Errorf("%s line %d, ndvi_slope7: %w", name, line, err)
		}
		table = append(table, rec)
	}

	sort.Slice(table, func(i, j int) bool { return table[i].Date.Before(table[j].Date) })
	for i := 1; i < len(table); i++ {
		if table[i].Date.Equal(table[i-1].Date) {
			return nil, fmt.Errorf("%s: duplicate date %s", name, table[i].Date.Format(dateLayout))
		}
	}
	return table, nil
}

const dateLayout = "2006-01-02"

// resolveColumn returns the index of the first alias present, or -1.
func resolveColumn(cols map[string]int, aliases []string) int {
	for _, a := range aliases {
		if i, ok := cols[a]; ok {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseDate(s string) (time.Time, error) {
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseValue maps absent, empty, and NaN cells to NaN; anything else must be
// a valid float.
func parseValue(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable number %q", s)
	}
	return v, nil
}
