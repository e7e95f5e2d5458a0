package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hengadev/bier"
	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/tags"
)

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(c.stderr)
	return set
}

func (c *cli) validateCommand(args []string) error {
	fset := c.flagSet("validate")
	verbose := fset.Bool("v", false, "Verbose output")
	if err := fset.Parse(args); err != nil {
		return err
	}

	paths := fset.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := goFiles(paths)
	if err != nil {
		return err
	}

	validator := tags.NewValidator()
	failed := 0
	for _, file := range files {
		if err := validator.ValidateSourceFile(file); err != nil {
			failed++
			fmt.Fprintln(c.stdout, err)
			continue
		}
		if *verbose {
			fmt.Fprintf(c.stdout, "✓ %s\n", file)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files have invalid bier tags", failed, len(files))
	}
	fmt.Fprintf(c.stdout, "✓ %d files checked\n", len(files))
	return nil
}

// goFiles expands directories into the .go files below them, skipping
// hidden and underscore prefixed directories the way the go tool does.
func goFiles(paths []string) ([]string, error) {
	var out []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(name, ".go") {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// codecFlags are shared by the commands that touch a schema.
type codecFlags struct {
	config *string
	schema *string
	record *string
	order  *string
	hex    *bool
}

func (c *cli) schemaFlags(name string) (*flag.FlagSet, codecFlags) {
	fset := c.flagSet(name)
	return fset, codecFlags{
		config: fset.String("config", "", "Configuration file (default: BIER_* environment)"),
		schema: fset.String("schema", "", "YAML schema file"),
		record: fset.String("record", "", "Record name"),
		order:  fset.String("order", "le", "Byte order: le or be"),
		hex:    fset.Bool("hex", false, "Binary data is hex encoded"),
	}
}

func (f codecFlags) codec() (*bier.Codec, error) {
	var cfg bier.Config
	var err error
	if *f.config != "" {
		cfg, err = bier.LoadConfig(*f.config)
	} else {
		cfg, err = bier.LoadConfigFromEnvironment()
	}
	if err != nil {
		return nil, err
	}
	return bier.NewFromConfig(cfg)
}

func (f codecFlags) load() (*bier.Schema, error) {
	if *f.schema == "" {
		return nil, errors.New("-schema is required")
	}
	return bier.LoadSchemaFile(*f.schema)
}

func (f codecFlags) target() (*bier.Codec, *bier.DynamicRecord, endian.Order, error) {
	schema, err := f.load()
	if err != nil {
		return nil, nil, 0, err
	}
	rec, ok := schema.Record(*f.record)
	if !ok {
		return nil, nil, 0, fmt.Errorf("schema has no record %q (have %s)", *f.record, strings.Join(schema.Names(), ", "))
	}
	order, err := endian.ParseOrder(*f.order)
	if err != nil {
		return nil, nil, 0, err
	}
	codec, err := f.codec()
	if err != nil {
		return nil, nil, 0, err
	}
	return codec, rec, order, nil
}

func (c *cli) schemaCommand(args []string) error {
	fset, flags := c.schemaFlags("schema")
	if err := fset.Parse(args); err != nil {
		return err
	}
	schema, err := flags.load()
	if err != nil {
		return err
	}
	codec, err := flags.codec()
	if err != nil {
		return err
	}

	for _, name := range schema.Names() {
		rec, _ := schema.Record(name)
		fp, err := codec.Registry().Fingerprint(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s %s\n", fp, name)
	}
	return nil
}

func (c *cli) encodeCommand(args []string) error {
	fset, flags := c.schemaFlags("encode")
	output := fset.String("o", "", "Output file (default: stdout)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	codec, rec, order, err := flags.target()
	if err != nil {
		return err
	}

	raw, err := readInput(fset.Arg(0), c.stdin)
	if err != nil {
		return err
	}
	var value map[string]any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to parse value: %w", err)
	}

	data, err := codec.MarshalRecord(rec, value, order)
	if err != nil {
		return err
	}
	if *flags.hex {
		data = []byte(hex.EncodeToString(data) + "\n")
	}
	if *output != "" {
		return os.WriteFile(*output, data, 0o644)
	}
	_, err = c.stdout.Write(data)
	return err
}

func (c *cli) decodeCommand(args []string) error {
	fset, flags := c.schemaFlags("decode")
	if err := fset.Parse(args); err != nil {
		return err
	}
	codec, rec, order, err := flags.target()
	if err != nil {
		return err
	}

	data, err := readInput(fset.Arg(0), c.stdin)
	if err != nil {
		return err
	}
	if *flags.hex {
		if data, err = hex.DecodeString(strings.TrimSpace(string(data))); err != nil {
			return fmt.Errorf("invalid hex input: %w", err)
		}
	}

	value, err := codec.UnmarshalRecord(rec, data, order)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(out)
	return err
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func (c *cli) initCommand(args []string) error {
	fset := c.flagSet("init")
	force := fset.Bool("force", false, "Overwrite existing configuration file")
	path := fset.String("o", "bier.yaml", "Configuration file to write")
	if err := fset.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(*path); err == nil {
			return fmt.Errorf("configuration file %s already exists, use -force to overwrite", *path)
		}
	}
	if err := bier.SaveConfig(bier.DefaultConfig(), *path); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Configuration file %s created\n", *path)
	return nil
}

func (c *cli) versionCommand() {
	fmt.Fprintln(c.stdout, bier.VersionInfo())
	fmt.Fprintln(c.stdout, "Declarative binary serialization")
	fmt.Fprintln(c.stdout, "")
	fmt.Fprintln(c.stdout, "Kinds: u8..u64, i8..i64, f16, f32, f64, str, cstr, bytes, list, tuple, record, uuid")
	fmt.Fprintln(c.stdout, "Roots: class, presence, tlv")
}
