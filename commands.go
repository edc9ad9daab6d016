package main

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chazu/quill/pkg/beautify"
	"github.com/chazu/quill/pkg/codec"
	"github.com/chazu/quill/pkg/config"
	"github.com/chazu/quill/pkg/sketch"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// errFindings is returned when evaluation reported errors that were
// already printed.
var errFindings = errors.New("evaluation reported errors")

// options holds the flags shared by the commands.
type options struct {
	configPath string
	format     string
	out        string
	beautify   bool
	strict     bool
	margin     int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "quill",
		Short:         "Build, beautify and inspect sketch documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "session config file (YAML)")

	evalCmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate a sketch script and write the encoded document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args[0])
		},
	}
	evalCmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json or cbor")
	evalCmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	evalCmd.Flags().BoolVarP(&opts.beautify, "beautify", "b", false, "beautify recognized shapes")
	evalCmd.Flags().BoolVar(&opts.strict, "strict", false, "treat validation warnings as errors")

	inspectCmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print a summary of an encoded sketch document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Evaluate a sketch script, beautify it and paint it to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0])
		},
	}
	renderCmd.Flags().StringVarP(&opts.out, "out", "o", "sketch.png", "output PNG file")
	renderCmd.Flags().IntVar(&opts.margin, "margin", 4, "blank border in sketch units")

	root.AddCommand(evalCmd, inspectCmd, renderCmd)
	return root
}

// setup loads the config and installs the logger.
func setup(cmd *cobra.Command, opts *options) (*config.Config, zerolog.Logger, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	log := cfg.Logger(cmd.ErrOrStderr())
	sketch.SetLogger(&log)
	return cfg, log, nil
}

// evaluateFile runs the pipeline on a script and prints its findings.
func evaluateFile(cmd *cobra.Command, opts *options, path string, beautifyShapes bool) (EvalResult, error) {
	cfg, log, err := setup(cmd, opts)
	if err != nil {
		return EvalResult{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return EvalResult{}, err
	}
	res := NewApp(cfg, log).Evaluate(string(src), beautifyShapes)

	w := cmd.ErrOrStderr()
	for _, e := range res.Errors {
		printFinding(w, path, "error", e)
	}
	for _, e := range res.Warnings {
		printFinding(w, path, "warning", e)
	}
	if !res.OK() || (opts.strict && len(res.Warnings) > 0) {
		return res, errFindings
	}
	return res, nil
}

func printFinding(w io.Writer, path, kind string, e EvalErrorData) {
	if e.Line > 0 {
		fmt.Fprintf(w, "%s:%d: %s: %s\n", path, e.Line, kind, e.Message)
		return
	}
	fmt.Fprintf(w, "%s: %s: %s\n", path, kind, e.Message)
}

func runEval(cmd *cobra.Command, opts *options, path string) error {
	f, err := codec.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	res, err := evaluateFile(cmd, opts, path, opts.beautify)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(res.Sketch, f)
	if err != nil {
		return err
	}
	if opts.out == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(opts.out, data, 0o644)
}

func runInspect(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sk, err := codec.Unmarshal(data, codec.Detect(data))
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sk)
	return nil
}

// printSummary writes the sketch metadata, a stroke count and the shape
// tree, followed by validation findings.
func printSummary(w io.Writer, sk *sketch.Sketch) {
	fmt.Fprintf(w, "sketch %s\n", sk.ID())
	if sk.Study != "" || sk.Domain != "" {
		fmt.Fprintf(w, "  study %q domain %q\n", sk.Study, sk.Domain)
	}
	fmt.Fprintf(w, "  units %s\n", sk.Units)
	fmt.Fprintf(w, "  %d strokes, %d points, %d authors, %d pens\n",
		sk.NumStrokes(), len(sk.Points()), len(sk.Authors()), len(sk.Pens()))
	fmt.Fprintf(w, "  bounds %s\n", sk.BoundingBox())
	vr := sketch.ValidateAll(sk)
	// Shape boxes recurse through sub-shapes and would not terminate on
	// a nesting cycle.
	bounds := vr.OK()
	for _, sh := range sk.Shapes() {
		printShape(w, sh, 1, make(map[*sketch.Shape]bool), bounds)
	}
	for _, e := range vr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	for _, e := range vr.Warnings {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func printShape(w io.Writer, sh *sketch.Shape, depth int, seen map[*sketch.Shape]bool, bounds bool) {
	indent := strings.Repeat("  ", depth)
	if seen[sh] {
		fmt.Fprintf(w, "%s#%d %q (cycle)\n", indent, sh.Order(), sh.Label)
		return
	}
	seen[sh] = true
	defer delete(seen, sh)

	label := sh.Label
	if label == "" {
		label = "(unlabeled)"
	}
	fmt.Fprintf(w, "%s#%d %s: %d strokes, %d aliases", indent, sh.Order(), label, sh.NumStrokes(), sh.NumAliases())
	if bounds {
		fmt.Fprintf(w, ", bounds %s", sh.BoundingBox())
	}
	fmt.Fprintln(w)
	for _, c := range sh.SubShapes() {
		printShape(w, c, depth+1, seen, bounds)
	}
}

func runRender(cmd *cobra.Command, opts *options, path string) error {
	res, err := evaluateFile(cmd, opts, path, true)
	if err != nil {
		return err
	}
	img, err := paintSketch(res.Sketch, opts.margin)
	if err != nil {
		return err
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// paintSketch paints every visible beautified top-level shape onto a white
// canvas covering the sketch bounds. Pixels are sketch units.
func paintSketch(sk *sketch.Sketch, margin int) (*image.NRGBA, error) {
	bb := sk.BoundingBox()
	if bb == nil {
		return nil, errors.New("render: sketch has no ink")
	}
	r := image.Rect(
		int(math.Floor(bb.MinX()))-margin, int(math.Floor(bb.MinY()))-margin,
		int(math.Ceil(bb.MaxX()))+margin, int(math.Ceil(bb.MaxY()))+margin,
	)
	img := image.NewNRGBA(r)
	draw.Draw(img, r, image.White, image.Point{}, draw.Src)
	for _, sh := range sk.Shapes() {
		if !sh.IsVisible() {
			continue
		}
		p := sh.Painter()
		if p == nil {
			p = &beautify.OutlinePainter{Color: shapeColor(sh)}
		}
		if err := p.Paint(img, sh); err != nil {
			return nil, fmt.Errorf("render: shape %s: %w", sh.ID(), err)
		}
	}
	return img, nil
}
