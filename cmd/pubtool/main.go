package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-publication/pkg/publication"
	"github.com/tendant/simple-publication/pkg/publication/codec"
	"github.com/tendant/simple-publication/pkg/publication/config"
)

const usage = `Publication Tool

Validates, inspects and converts publication documents. Input may be JSON or
CBOR, in the per-kind or tagged layout, optionally zstd-compressed; the format
is detected automatically.

USAGE:
  pubtool <command> [options]

COMMANDS:
  validate  <file>             Decode a document and check its integrity
  inspect   <file>             Show sections, block counts and unreferenced blocks
  convert   <in> <out>         Re-encode a document
  normalize <in> <out>         Renumber every section 0..n-1
  demo      [<out>]            Write the Weekly Digest sample (stdout when omitted)

OPTIONS:
  --json                       Output inspect results as JSON
  --format=<json|cbor>         Output format
  --layout=<kinds|tagged>      Block layout
  --compress                   zstd-compress the output
  --log-level=<level>          debug, info, warn or error

  Use "-" as a file name for stdin/stdout.
  Configuration can be loaded from a .env file in the current directory.
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	positional []string
	useJSON    bool
	configOpts []config.Option
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage+"\n")
		return 1
	}

	command := args[0]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Fprint(stdout, usage+"\n")
		fmt.Fprintln(stdout, config.Describe())
		return 0
	}

	opts := parseArgs(args[1:])
	cfg, err := config.Load(append([]config.Option{config.WithEnv()}, opts.configOpts...)...)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}
	logger := cfg.NewLogger(stderr)

	t := &tool{cfg: cfg, logger: logger, stdin: stdin, stdout: stdout}

	switch command {
	case "validate":
		err = t.validate(opts)
	case "inspect":
		err = t.inspect(opts)
	case "convert":
		err = t.convert(opts, false)
	case "normalize":
		err = t.convert(opts, true)
	case "demo":
		err = t.demo(opts)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(stderr, usage+"\n")
		return 1
	}

	if err != nil {
		logger.Error("command failed", "command", command, "err", err)
		return 1
	}
	return 0
}

func parseArgs(args []string) options {
	var opts options
	for _, arg := range args {
		if arg == "--json" {
			opts.useJSON = true
			continue
		}

		key, value := parseFlag(arg)
		switch key {
		case "":
			opts.positional = append(opts.positional, arg)
		case "format":
			opts.configOpts = append(opts.configOpts, config.WithFormat(value))
		case "layout":
			opts.configOpts = append(opts.configOpts, config.WithLayout(value))
		case "compress":
			opts.configOpts = append(opts.configOpts, config.WithCompression(value != "false"))
		case "log-level":
			opts.configOpts = append(opts.configOpts, config.WithLogLevel(value))
		}
	}
	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

var errUsage = errors.New("wrong number of arguments")

type tool struct {
	cfg    *config.ToolConfig
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (t *tool) read(path string) (*publication.Publication, error) {
	var r io.Reader = t.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	pub, info, err := codec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	t.logger.Debug("document decoded", "path", path, "format", info.Format, "layout", info.Layout, "compressed", info.Compressed)
	return pub, nil
}

func (t *tool) write(path string, pub *publication.Publication) error {
	opts, err := t.cfg.CodecOptions()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, pub, opts); err != nil {
		return err
	}
	if opts.Format == codec.FormatJSON && !opts.Compress {
		buf.WriteByte('\n')
	}

	if path == "-" {
		_, err = t.stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	t.logger.Info("document written", "path", path, "format", opts.Format, "layout", opts.Layout, "compressed", opts.Compress, "bytes", buf.Len())
	return nil
}

func (t *tool) validate(opts options) error {
	if len(opts.positional) != 1 {
		return errUsage
	}
	pub, err := t.read(opts.positional[0])
	if err != nil {
		return err
	}
	if err := pub.CheckIntegrity(); err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s: ok (%d sections, %d blocks)\n", opts.positional[0], pub.SectionCount(), pub.BlockCount())
	return nil
}

type inspectSection struct {
	ID     publication.SectionID    `json:"id"`
	Title  *string                  `json:"title"`
	Orders []publication.BlockOrder `json:"orders"`
}

type inspectReport struct {
	Title        string                   `json:"title"`
	Sections     []inspectSection         `json:"sections"`
	BlockCounts  map[publication.Kind]int `json:"blockCounts"`
	Unreferenced []publication.BlockID    `json:"unreferenced"`
}

func (t *tool) inspect(opts options) error {
	if len(opts.positional) != 1 {
		return errUsage
	}
	pub, err := t.read(opts.positional[0])
	if err != nil {
		return err
	}

	report := inspectReport{
		Title:        pub.Title(),
		BlockCounts:  pub.CountByKind(),
		Unreferenced: pub.UnreferencedBlocks(),
	}
	for _, s := range pub.Sections() {
		report.Sections = append(report.Sections, inspectSection{ID: s.ID(), Title: s.Title(), Orders: s.Orders()})
	}

	if opts.useJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(t.stdout, string(data))
		return nil
	}

	fmt.Fprintf(t.stdout, "Title: %s\n\n", report.Title)

	w := tabwriter.NewWriter(t.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tSECTION\tTITLE\tBLOCKS\n")
	for i, s := range report.Sections {
		title := "-"
		if s.Title != nil {
			title = *s.Title
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t", i, s.ID, title)
		for j, o := range s.Orders {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%s@%d", o.BlockID, o.Index)
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	fmt.Fprintln(t.stdout, "\nBlocks:")
	for _, k := range publication.Kinds() {
		if n := report.BlockCounts[k]; n > 0 {
			fmt.Fprintf(t.stdout, "  %-12s: %d\n", k, n)
		}
	}
	if len(report.Unreferenced) > 0 {
		fmt.Fprintln(t.stdout, "\nUnreferenced:")
		for _, id := range report.Unreferenced {
			fmt.Fprintf(t.stdout, "  %s\n", id)
		}
	}
	return nil
}

func (t *tool) convert(opts options, normalize bool) error {
	if len(opts.positional) != 2 {
		return errUsage
	}
	pub, err := t.read(opts.positional[0])
	if err != nil {
		return err
	}
	if normalize {
		pub.Normalize()
	}
	return t.write(opts.positional[1], pub)
}

func (t *tool) demo(opts options) error {
	out := "-"
	switch len(opts.positional) {
	case 0:
	case 1:
		out = opts.positional[0]
	default:
		return errUsage
	}
	pub, err := weeklyDigest()
	if err != nil {
		return err
	}
	return t.write(out, pub)
}

// weeklyDigest builds a one-section publication with a text block followed by
// an image.
func weeklyDigest() (*publication.Publication, error) {
	pub := publication.New("Weekly Digest")

	text, err := publication.NewBlock("T1", publication.TextPayload{Text: "Breaking news..."})
	if err != nil {
		return nil, err
	}
	image, err := publication.NewBlock("I1", publication.ImagePayload{
		Image:      "https://cdn.example.com/digest/hero.png",
		AltText:    "Hero image",
		Caption:    "This week",
		SourceType: publication.SourceTypeURL,
	})
	if err != nil {
		return nil, err
	}
	for _, b := range []*publication.Block{text, image} {
		if err := pub.AddBlock(b); err != nil {
			return nil, err
		}
	}

	title := "Top Story"
	if err := pub.AddSectionWithID("top-story", &title); err != nil {
		return nil, err
	}
	if err := pub.AddSectionOrder("top-story", "T1", 0); err != nil {
		return nil, err
	}
	if err := pub.AddSectionOrder("top-story", "I1", 1); err != nil {
		return nil, err
	}
	return pub, nil
}
