package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cadetquiz/internal/testdef"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "testimport",
		Usage: "convert and check cadet test definition files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "web", EnvVars: []string{"TEST_DIR"}, Usage: "site directory holding test/<category>/<subcategory>.json"},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "convert an .xlsx workbook into a test definition",
				ArgsUsage: "<workbook.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Required: true},
					&cli.StringFlag{Name: "subcategory", Required: true},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: importWorkbook,
			},
			{
				Name:   "validate",
				Usage:  "load every test file under the site directory and report schema errors",
				Action: validateAll,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Printf("testimport: %v", err)
		os.Exit(1)
	}
}

func importWorkbook(c *cli.Context) error {
	src := c.Args().First()
	if src == "" {
		return errors.New("workbook path is required")
	}
	p := testdef.Params{Category: c.String("category"), Subcategory: c.String("subcategory")}
	if err := testdef.ValidateParams(p); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	def, err := testdef.ImportWorkbook(f)
	if err != nil {
		return err
	}
	if def.Category == "" {
		def.Category = p.Category
	}
	if def.Subcategory == "" {
		def.Subcategory = p.Subcategory
	}

	out := filepath.Join(c.String("dir"), filepath.FromSlash(testdef.Path(p.Category, p.Subcategory)))
	if _, err := os.Stat(out); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", out)
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write definition: %w", err)
	}
	log.Printf("wrote %s (%d questions)", out, len(def.Questions))
	return nil
}

func validateAll(c *cli.Context) error {
	ctx := context.Background()
	fetcher := testdef.NewDirFetcher(c.String("dir"))
	loader := testdef.NewLoader(fetcher)

	cats, err := testdef.NewCatalog(fetcher).List(ctx)
	if err != nil {
		return err
	}

	var failed []string
	total := 0
	for _, cat := range cats {
		for _, t := range cat.Tests {
			total++
			if _, err := loader.Load(ctx, testdef.Params{Category: cat.Category, Subcategory: t.Subcategory}); err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", t.Path, err))
			}
		}
	}
	for _, f := range failed {
		log.Printf("invalid %s", f)
	}
	log.Printf("checked %d test files, %d invalid", total, len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d invalid test files: %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}
