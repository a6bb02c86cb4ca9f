package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/masomo-console/core/document"
	"github.com/trezcool/masomo-console/core/guard"
)

func (cli *commandLine) fileFlag(name string, args []string, withOut bool) (string, string, error) {
	fs := cli.newFlagSet(name)
	path := fs.String("file", "", "The image to upload.")
	var outDir *string
	if withOut {
		outDir = fs.String("out", ".", "The directory the result is saved to.")
	}
	if err := cli.parse(fs, args); err != nil {
		return "", "", err
	}
	if *path == "" {
		fs.Usage()
		return "", "", errHelp
	}
	if outDir != nil {
		return *path, *outDir, nil
	}
	return *path, "", nil
}

func (cli *commandLine) runOCR(ctx context.Context, args []string) error {
	if err := cli.open(guard.PathAadhaar); err != nil {
		return err
	}
	path, _, err := cli.fileFlag("ocr", args, false)
	if err != nil {
		return err
	}
	f, err := document.ReadFile(path)
	if err != nil {
		return err
	}
	if ok, err := cli.extraction.Select(f); err != nil {
		return err
	} else if !ok {
		return errUploadBusy
	}
	if !cli.extraction.Submit(ctx) {
		return errFailed
	}

	fields, _ := cli.extraction.Result()
	fmt.Fprintln(cli.out, cli.title.Render("Extraction Results"))
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Full Name\t%s\n", fields.DisplayName())
	fmt.Fprintf(tw, "Date of Birth / Age\t%s\n", fields.DisplayDate())
	fmt.Fprintf(tw, "Aadhaar Number\t%s\n", fields.DisplayNumber())
	_ = tw.Flush()
	if fields.Incomplete() {
		fmt.Fprintln(cli.out, cli.warn.Render(document.IncompleteTitle))
		fmt.Fprintln(cli.out, document.IncompleteMessage)
	}
	return nil
}

func (cli *commandLine) runRemoveBackground(ctx context.Context, args []string) error {
	if err := cli.open(guard.PathBackground); err != nil {
		return err
	}
	path, outDir, err := cli.fileFlag("removebg", args, true)
	if err != nil {
		return err
	}
	f, err := document.ReadFile(path)
	if err != nil {
		return err
	}
	if ok, err := cli.background.Select(f); err != nil {
		return err
	} else if !ok {
		return errUploadBusy
	}
	if !cli.background.Submit(ctx) {
		return errFailed
	}

	img, _ := cli.background.Result()
	saved, err := img.Save(outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Saved %s\n", saved)
	return nil
}
