package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadASC parses an ESRI ASCII grid.
func ReadASC(r io.Reader) (*Raster, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	var raster = Raster{NoDataValue: DefaultNoData}
	var seen = map[string]bool{}
	var pending string
	for len(seen) < 6 {
		key, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: unexpected end of header", ErrMalformedHeader)
		}
		lower := strings.ToLower(key)
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			// Header without a NODATA_value line.
			if len(seen) == 5 && !seen["nodata_value"] {
				pending = key
				break
			}
			return nil, fmt.Errorf("%w: unexpected value %q", ErrMalformedHeader, key)
		}
		value, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: missing value for %s", ErrMalformedHeader, key)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedHeader, key, err)
		}
		switch lower {
		case "ncols":
			raster.NCols = int(f)
		case "nrows":
			raster.NRows = int(f)
		case "xllcorner", "xllcenter":
			raster.XMinimum = f
		case "yllcorner", "yllcenter":
			raster.YMinimum = f
		case "cellsize":
			raster.DataResolution = f
		case "nodata_value":
			raster.NoDataValue = f
		default:
			return nil, fmt.Errorf("%w: unknown key %q", ErrMalformedHeader, key)
		}
		seen[lower] = true
	}
	if raster.NRows <= 0 || raster.NCols <= 0 || raster.DataResolution <= 0 {
		return nil, fmt.Errorf("%w: nrows=%d ncols=%d cellsize=%g", ErrMalformedHeader,
			raster.NRows, raster.NCols, raster.DataResolution)
	}

	raster.Data = make([]float64, raster.NRows*raster.NCols)
	i := 0
	if pending != "" {
		v, _ := strconv.ParseFloat(pending, 64)
		raster.Data[i] = v
		i++
	}
	for ; i < len(raster.Data); i++ {
		token, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: got %d of %d", ErrShortData, i, len(raster.Data))
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("core: value %d: %w", i, err)
		}
		raster.Data[i] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &raster, nil
}

// WriteASC writes r as an ESRI ASCII grid, northern row first.
func (r *Raster) WriteASC(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", r.NCols)
	fmt.Fprintf(bw, "nrows %d\n", r.NRows)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(r.XMinimum))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(r.YMinimum))
	fmt.Fprintf(bw, "cellsize %s\n", formatFloat(r.DataResolution))
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(r.NoDataValue))
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(r.At(row, col)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ReadASCFile(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := ReadASC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (r *Raster) WriteASCFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteASC(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
