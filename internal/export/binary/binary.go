package binary

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/robalyx/warden/internal/export/types"
)

// Exporter handles exporting hashes to binary files.
//
// Each file starts with a little endian uint32 record count. Every record is
// the raw hash bytes, the kind and reason as uint16 length prefixed strings
// and the int64 expiry. Strings longer than a uint16 length allows are cut at
// the last whole character that fits.
type Exporter struct {
	outDir string
}

// New creates a new binary exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes account and address records to separate binary files.
func (e *Exporter) Export(accountRecords, addressRecords []*types.ExportRecord) error {
	files := []string{"accounts.bin", "addresses.bin"}
	for _, file := range files {
		path := filepath.Join(e.outDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing file %s: %w", file, err)
		}
	}

	if err := e.writeFile("accounts.bin", accountRecords); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}

	if err := e.writeFile("addresses.bin", addressRecords); err != nil {
		return fmt.Errorf("failed to export addresses: %w", err)
	}

	return nil
}

// writeFile writes records to a binary file.
func (e *Exporter) writeFile(filename string, records []*types.ExportRecord) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create binary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	count := uint32(len(records)) //nolint:gosec // unlikely to overflow
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return fmt.Errorf("failed to write record count: %w", err)
	}

	for _, record := range records {
		hashBytes, err := hex.DecodeString(record.Hash)
		if err != nil {
			return fmt.Errorf("failed to decode hash: %w", err)
		}

		if _, err := w.Write(hashBytes); err != nil {
			return fmt.Errorf("failed to write hash: %w", err)
		}

		if err := writeString(w, record.Kind); err != nil {
			return fmt.Errorf("failed to write kind: %w", err)
		}

		if err := writeString(w, record.Reason); err != nil {
			return fmt.Errorf("failed to write reason: %w", err)
		}

		if err := binary.Write(w, binary.LittleEndian, record.ExpiresAt); err != nil {
			return fmt.Errorf("failed to write expiry: %w", err)
		}
	}

	return w.Flush()
}

func writeString(w io.Writer, s string) error {
	s = clip(s, math.MaxUint16)

	length := uint16(len(s)) //nolint:gosec // clipped above
	if err := binary.Write(w, binary.LittleEndian, length); err != nil {
		return err
	}

	_, err := io.WriteString(w, s)
	return err
}

// clip shortens s to at most limit bytes without splitting a character.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
