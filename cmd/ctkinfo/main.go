// This tool reads header, subject and trigger metadata from a CNT file
// and prints a summary to stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	ctk "github.com/slatinski/ctk-sub001"
)

const missingPathMessage = "You must pass the path of the file to read"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) (err error) {
	fs := flag.NewFlagSet("ctkinfo", flag.ContinueOnError)
	broken := fs.Bool("broken", false, "fall back to identifier-scan recovery for damaged files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return errMissingPath
	}
	path := fs.Arg(0)

	var opts []ctk.Option
	if *broken {
		opts = append(opts, ctk.WithBrokenFileRecovery())
	}

	r, err := ctk.Open(path, opts...)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		cerr := r.Close()
		if cerr != nil && err == nil {
			err = cerr
		}
	}()

	h := r.Header()
	info := r.Info()

	fmt.Fprintf(out, "File version: %d.%d\n", h.VersionMajor, h.VersionMinor)
	fmt.Fprintf(out, "Sampling rate: %g Hz\n", h.SamplingRate)
	fmt.Fprintf(out, "Channels: %d\n", h.Channels)
	fmt.Fprintf(out, "Samples: %d\n", r.SampleCount())
	fmt.Fprintf(out, "Subject: %s (%s)\n", info.SubjectName, info.SubjectID)
	fmt.Fprintf(out, "Hospital: %s\n", info.Hospital)
	fmt.Fprintf(out, "Technician: %s\n", info.Technician)

	fmt.Fprintln(out, "Electrodes:")
	for _, e := range h.Electrodes {
		fmt.Fprintf(out, "\t%s\tiscale=%g rscale=%g unit=%s\n", e.Label, e.IScale, e.RScale, e.Unit)
	}

	triggers := r.Triggers()
	fmt.Fprintf(out, "Triggers: %d\n", len(triggers))
	for i, t := range triggers {
		if i >= 10 {
			fmt.Fprintf(out, "\t... %d more\n", len(triggers)-10)
			break
		}
		fmt.Fprintf(out, "\tsample=%d code=%q\n", t.Sample, t.Code[:])
	}

	embedded := r.Embedded()
	if len(embedded) > 0 {
		fmt.Fprintln(out, "Embedded chunks:")
		for _, id := range embedded {
			fmt.Fprintf(out, "\t%s\n", id)
		}
	}

	return nil
}
