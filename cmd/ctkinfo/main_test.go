package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	ctk "github.com/slatinski/ctk-sub001"
	"github.com/slatinski/ctk-sub001/header"
)

func TestRunRequiresPath(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, &out)
	if !errors.Is(err, errMissingPath) {
		t.Fatalf("expected errMissingPath, got %v", err)
	}
}

func TestRunPrintsSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.cnt")

	w, err := ctk.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.SetElectrodes([]header.Electrode{
		{Label: "1", IScale: 1, RScale: 1.0 / 256, Unit: "uV"},
		{Label: "2", IScale: 1, RScale: 1.0 / 256, Unit: "uV"},
	}); err != nil {
		t.Fatalf("SetElectrodes: %v", err)
	}
	if err := w.SetSamplingRate(256); err != nil {
		t.Fatalf("SetSamplingRate: %v", err)
	}
	if err := w.SetEpochLength(1024); err != nil {
		t.Fatalf("SetEpochLength: %v", err)
	}
	if err := w.SetStartTime(time.Date(2021, time.June, 15, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SetStartTime: %v", err)
	}
	if err := w.AppendColumnMajor([]int64{1, 2}); err != nil {
		t.Fatalf("AppendColumnMajor: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var out bytes.Buffer
	if err := run([]string{path}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"File version: 4.0", "Channels: 2", "Samples: 1", "Electrodes:"} {
		if !bytes.Contains(out.Bytes(), []byte(want)) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{filepath.Join(t.TempDir(), "missing.cnt")}, &out)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
