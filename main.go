package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xlab/closer"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/config"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/erosion"
	"github.com/ob6160/Landscape/generators"
)

const fillSlope = 1e-5

var (
	paramsPath   = flag.String("params", "", "parameter file (key: value, or .yaml)")
	loadPath     = flag.String("load", "", "initial surface as an ASCII grid, overrides the load file parameter")
	outDir       = flag.String("out", ".", "directory for reports and rasters")
	surface      = flag.String("surface", "noise", "initial surface when none is loaded: noise, parabolic or fractal")
	steady       = flag.Bool("steady", false, "bring the model to steady state before the forced runs")
	templatePath = flag.String("template", "", "write a parameter template to this path and exit")
	seed         = flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	debug        = flag.Bool("debug", false, "dump solver matrices to stderr")
)

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "lem: ", log.LstdFlags)

	if *templatePath != "" {
		if err := writeTemplate(*templatePath); err != nil {
			logger.Fatalln(err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	doneC := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-doneC
	})

	errC := make(chan error, 1)
	go func() {
		defer close(doneC)
		errC <- run(ctx, logger)
	}()

	err := <-errC
	switch {
	case errors.Is(err, context.Canceled):
		logger.Println("interrupted")
	case err != nil:
		logger.Println(err)
		closer.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger) error {
	p, err := loadParams(logger)
	if err != nil {
		return err
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	gen, err := initialSurface(&p)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	m, err := p.Boundary()
	if err != nil {
		return err
	}
	if gen == nil {
		gen = generatorFor(*surface, p, m, rng)
	}

	clk, err := erosion.NewClock(p, logger)
	if err != nil {
		return err
	}
	opts := []erosion.Option{erosion.WithOutput(*outDir), erosion.WithRand(rng)}
	if *debug {
		opts = append(opts, erosion.WithDebug(os.Stderr))
	}
	if !p.Quiet {
		opts = append(opts, erosion.WithLogger(logger))
	}
	e := erosion.NewEroder(gen, m, clk, erosion.NewState(p), opts...)
	if err := e.Initialise(); err != nil {
		return err
	}
	defer e.Close()

	if *steady {
		if err := e.ReachSteadyState(ctx); err != nil {
			return err
		}
		err = e.RunFromSteadyState(ctx)
	} else {
		err = e.Run(ctx)
	}
	if err != nil {
		return err
	}

	sum := e.Summary()
	logger.Printf("%s: %d steps to t=%g, %d non-convergent, run %s",
		p.Name, sum.Steps, sum.FinalTime, sum.NonConvergentSteps, e.RunID())
	return nil
}

func loadParams(logger *log.Logger) (config.Params, error) {
	if *paramsPath == "" {
		return config.Defaults(), nil
	}
	p, warnings, err := config.Load(*paramsPath)
	for _, w := range warnings {
		logger.Printf("%s: %s", *paramsPath, w)
	}
	return p, err
}

// initialSurface returns the loaded surface, if any, and resizes p to match it.
func initialSurface(p *config.Params) (generators.TerrainGenerator, error) {
	path := p.LoadFile
	if *loadPath != "" {
		path = *loadPath
	}
	if path == "" {
		return nil, nil
	}
	r, err := core.ReadASCFile(path)
	if err != nil {
		return nil, fmt.Errorf("load surface: %w", err)
	}
	p.NRows, p.NCols = r.NRows, r.NCols
	p.Resolution = r.DataResolution
	return generators.NewLoaded(r), nil
}

func generatorFor(kind string, p config.Params, m boundary.Model, rng *rand.Rand) generators.TerrainGenerator {
	var g generators.TerrainGenerator
	switch kind {
	case "parabolic":
		g = generators.NewParabolic(m, p.Resolution, 1, p.Noise, rng)
	case "fractal":
		g = generators.NewMidPointDisplacement(p.NRows, p.NCols, p.Resolution, rng)
	default:
		g = generators.NewNoise(m, p.Resolution, p.Noise, rng)
	}
	return generators.NewFilled(g, m, fillSlope)
}

func writeTemplate(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = config.WriteYAML(f, config.Defaults())
	default:
		err = config.WriteTemplate(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
