package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"

	"github.com/razeghi71/tabql/table"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Load reads a file and returns a Table with row labels 0..n-1. The format
// is chosen by extension.
func Load(filename string) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".json", ".jsonl", ".avro", ".parquet":
	default:
		return nil, fmt.Errorf("%w %q (supported: .csv, .json, .jsonl, .avro, .parquet)", ErrUnsupportedFormat, ext)
	}

	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("cannot access %s: %w", filename, err)
	}

	switch ext {
	case ".csv":
		return loadCSV(filename)
	case ".json":
		return loadJSON(filename)
	case ".jsonl":
		return loadJSONL(filename)
	case ".avro":
		return loadAvro(filename)
	default:
		return loadParquet(filename)
	}
}

// isMissingMarker reports whether a text cell stands for a missing value.
func isMissingMarker(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "na", "n/a", "nan":
		return true
	}
	return false
}

func loadCSV(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return table.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header from %s: %w", filename, err)
	}

	b := newBuilder(true)
	cols := make([]int, len(header))
	for i, h := range header {
		cols[i] = b.column(strings.TrimSpace(h))
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}

		b.startRow()
		for i, col := range cols {
			if i >= len(record) {
				break
			}
			cell := strings.TrimSpace(record[i])
			if !isMissingMarker(cell) {
				b.set(col, table.StrVal(cell))
			}
		}
	}

	return b.build(), nil
}

func loadJSON(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return nil, fmt.Errorf("cannot parse JSON from %s: expected array of objects", filename)
	}

	b := newBuilder(false)
	for dec.More() {
		if err := readObject(dec, b); err != nil {
			return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", filename, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w", filename, err)
	}
	return b.build(), nil
}

func loadJSONL(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	b := newBuilder(false)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := readObject(json.NewDecoder(strings.NewReader(line)), b); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	return b.build(), nil
}

// readObject decodes one JSON object into a new row, adding columns in the
// order their keys first appear.
func readObject(dec *json.Decoder, b *builder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("expected object, got %v", tok)
	}

	b.startRow()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return err
		}
		b.set(b.column(key), jsonValue(v))
	}
	_, err = dec.Token() // closing brace
	return err
}

func jsonValue(v interface{}) table.Value {
	switch val := v.(type) {
	case float64:
		return table.NumVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return boolValue(val)
	case nil:
		return table.Null()
	default:
		// For nested objects/arrays, just stringify
		b, _ := json.Marshal(val)
		return table.StrVal(string(b))
	}
}

func boolValue(b bool) table.Value {
	if b {
		return table.StrVal("true")
	}
	return table.StrVal("false")
}

func loadAvro(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", filename, err)
	}

	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	b := newBuilder(false)
	names := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		names[i] = field.Name
		b.column(field.Name)
	}

	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		b.startRow()
		for i, name := range names {
			b.set(i, nativeValue(rec[name]))
		}
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}

	return b.build(), nil
}

func loadParquet(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", filename, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet file %s: %w", filename, err)
	}

	b := newBuilder(false)
	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
		b.column(field.Name())
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()
	for {
		row := make(map[string]interface{})
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading Parquet row: %w", err)
		}

		b.startRow()
		for i, name := range names {
			b.set(i, nativeValue(row[name]))
		}
	}

	return b.build(), nil
}

// nativeValue converts a decoded Avro or Parquet value.
func nativeValue(v interface{}) table.Value {
	switch val := v.(type) {
	case nil:
		return table.Null()
	case int:
		return table.NumVal(float64(val))
	case int32:
		return table.NumVal(float64(val))
	case int64:
		return table.NumVal(float64(val))
	case uint32:
		return table.NumVal(float64(val))
	case uint64:
		return table.NumVal(float64(val))
	case float32:
		return table.NumVal(float64(val))
	case float64:
		return table.NumVal(val)
	case string:
		return table.StrVal(val)
	case []byte:
		return table.StrVal(string(val))
	case bool:
		return boolValue(val)
	case map[string]interface{}:
		// Avro unions decode as {"type": value} - extract the value
		for _, inner := range val {
			return nativeValue(inner)
		}
		return table.Null()
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}
