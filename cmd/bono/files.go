package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/warp/bono-engine/roster"
	"github.com/warp/bono-engine/sheet"
)

// readTableFile reads an .xlsx or .csv file from disk.
func readTableFile(path string) (roster.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return roster.Table{}, err
	}
	defer f.Close()

	t, err := sheet.ReadTable(filepath.Base(path), f)
	if err != nil {
		return roster.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// loadInputs reads both files and joins them.
func loadInputs(requestersPath, rosterPath string) (roster.Table, roster.Table, error) {
	requesters, err := readTableFile(requestersPath)
	if err != nil {
		return roster.Table{}, roster.Table{}, err
	}
	master, err := readTableFile(rosterPath)
	if err != nil {
		return roster.Table{}, roster.Table{}, err
	}
	return requesters, master, nil
}
