package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/flow"
)

var FrameColumns = []string{"Frame_num", "Time", "K", "D", "Erosion", "Max_uplift"}

// Frame is the model state printed every print interval.
type Frame struct {
	Number    int
	Time      float64
	K, D      float64
	Erosion   float64
	MaxUplift float64

	Surface *core.Raster
	// Rates is the erosion rate field; only needed when erosion frames
	// are printed.
	Rates *core.Raster
	// Flow is the routing of Surface; only needed for slope-area tables
	// and drainage frames.
	Flow *flow.Info
}

// Frames writes frame rasters into Dir, named after the run.
type Frames struct {
	Dir       string
	Name      string
	RunID     uuid.UUID
	Elevation bool
	Hillshade bool
	Erosion   bool
	SlopeArea bool
	Drainage  bool

	meta *Writer
}

func NewFrames(dir, name string, runID uuid.UUID) *Frames {
	return &Frames{Dir: dir, Name: name, RunID: runID, Elevation: true}
}

func (f *Frames) path(name string) string {
	return filepath.Join(f.Dir, name)
}

func (f *Frames) Write(fr Frame) error {
	if f.meta == nil {
		w, err := Create(f.path("."+f.Name+"_frame_metadata"), f.Name, f.RunID, FrameColumns)
		if err != nil {
			return err
		}
		f.meta = w
	}
	if err := f.meta.Row(float64(fr.Number), fr.Time, fr.K, fr.D, fr.Erosion, fr.MaxUplift); err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s%d", f.Name, fr.Number)
	if f.Elevation {
		if err := f.WriteRaster(prefix, fr.Surface); err != nil {
			return err
		}
	}
	if f.Hillshade {
		if err := f.WriteRaster(prefix+"_hillshade", core.Hillshade(fr.Surface, 45, 315, 1)); err != nil {
			return err
		}
	}
	if f.Erosion && fr.Rates != nil {
		if err := f.WriteRaster(prefix+"_erosion", fr.Rates); err != nil {
			return err
		}
	}
	if f.Drainage && fr.Flow != nil {
		if err := f.WriteRaster(prefix+"_drainage", fr.Flow.DrainageAreaRaster(fr.Surface)); err != nil {
			return err
		}
	}
	if f.SlopeArea && fr.Flow != nil {
		out, err := os.Create(f.path(f.Name + "_sa"))
		if err != nil {
			return err
		}
		if err := WriteSlopeArea(out, f.Name, fr.Surface, fr.Flow); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return nil
}

// WriteRaster writes r as <Dir>/<name>.asc.
func (f *Frames) WriteRaster(name string, r *core.Raster) error {
	return r.WriteASCFile(f.path(name + ".asc"))
}

func (f *Frames) Close() error {
	if f.meta == nil {
		return nil
	}
	return f.meta.Close()
}

// WriteSlopeArea lists elevation, slope and contributing length (pixels
// times resolution) of every cell with a defined slope.
func WriteSlopeArea(w io.Writer, name string, z *core.Raster, info *flow.Info) error {
	slope := core.Slope(z)
	wr := NewWriter(w, name, uuid.Nil, []string{"Elevation", "Slope", "Area"})
	if err := wr.start(); err != nil {
		return err
	}
	for row := 0; row < z.NRows; row++ {
		for col := 0; col < z.NCols; col++ {
			if z.IsNoData(row, col) || slope.IsNoData(row, col) {
				continue
			}
			area := float64(info.ContributingPixels[info.Node(row, col)]) * z.DataResolution
			if err := wr.Row(z.At(row, col), slope.At(row, col), area); err != nil {
				return err
			}
		}
	}
	return wr.Close()
}
