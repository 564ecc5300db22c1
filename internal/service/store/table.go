package store

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/util"
	"github.com/kapu/santoral-go/pkg/errors"
)

// row is one record keyed by canonical column name.
type row map[string]string

var errIncompatibleHeader = stderrors.New("file header lacks current columns")

// Options are shared by every store.
type Options struct {
	BackupDir string
	Now       func() time.Time
}

// table is a flat CSV file with a header line. Older files may use legacy
// column names; they are mapped through aliases on read and keep their own
// column order on append.
type table struct {
	path      string
	columns   []string
	aliases   map[string]string
	backupDir string
	now       func() time.Time
	logger    *zap.Logger

	// backedUp is set once the file has been copied aside; later rewrites in
	// the same process reuse that copy.
	backedUp bool
}

func newTable(path string, columns []string, aliases map[string]string, opts Options, logger *zap.Logger) *table {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BackupDir == "" {
		opts.BackupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	return &table{
		path:      path,
		columns:   columns,
		aliases:   aliases,
		backupDir: opts.BackupDir,
		now:       opts.Now,
		logger:    logger,
	}
}

func (t *table) canonical(column string) string {
	column = util.FoldForCompare(trimBOM(column))
	if alias, ok := t.aliases[column]; ok {
		return alias
	}
	return column
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}

// read loads every readable row. A missing file is an empty table; rows the
// CSV reader rejects are skipped with a warning, and so are lines whose quoted
// field is still open at the end of the file.
func (t *table) read() ([]row, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceError("failed to open record file", t.path, "open", err)
	}

	data, dropped := dropUnterminated(data)
	for _, line := range dropped {
		t.logger.Warn("Skipping row with unterminated quote", zap.String("path", t.path), zap.String("row", line))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		t.logger.Warn("Unreadable header, treating file as empty", zap.String("path", t.path), zap.Error(err))
		return nil, nil
	}
	header := make([]string, len(rawHeader))
	for i, column := range rawHeader {
		header[i] = t.canonical(column)
	}

	rows := make([]row, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				t.logger.Warn("Skipping unreadable row",
					zap.String("path", t.path),
					zap.Int("line", parseErr.Line),
					zap.Error(err),
				)
				continue
			}
			t.logger.Warn("Stopped reading record file", zap.String("path", t.path), zap.Error(err))
			break
		}

		r := make(row, len(header))
		for i, column := range header {
			if i < len(record) {
				r[column] = record[i]
			}
		}
		line, _ := reader.FieldPos(0)
		r[lineKey] = itoa(line)
		rows = append(rows, r)
	}
	return rows, nil
}

// lineKey carries the source line of a row for diagnostics. It never reaches disk.
const lineKey = "\x00line"

// readHeader returns the canonical header of the file, or nil when the file
// is missing or empty.
func (t *table) readHeader() ([]string, error) {
	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceError("failed to open record file", t.path, "open", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	rawHeader, err := reader.Read()
	if err != nil {
		return nil, nil
	}
	header := make([]string, len(rawHeader))
	for i, column := range rawHeader {
		header[i] = t.canonical(column)
	}
	return header, nil
}

func (t *table) compatible(header []string) bool {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}
	for _, column := range t.columns {
		if !present[column] {
			return false
		}
	}
	return true
}

// appendRows adds rows at the end of the file, writing the header only when
// the file is new or empty. It returns errIncompatibleHeader when the file's
// header cannot hold every current column; the caller rewrites instead.
func (t *table) appendRows(rows []row) error {
	if len(rows) == 0 {
		return nil
	}

	needsNewline, err := t.repairTail()
	if err != nil {
		return err
	}

	header, err := t.readHeader()
	if err != nil {
		return err
	}
	writeHeader := header == nil
	if writeHeader {
		header = t.columns
	} else if !t.compatible(header) {
		return errIncompatibleHeader
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return errors.NewPersistenceError("failed to create data directory", t.path, "mkdir", err)
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.NewPersistenceError("failed to open record file for append", t.path, "append", err)
	}

	if writeHeader {
		// an empty but existing file may still hold stray whitespace
		needsNewline = false
	}
	if needsNewline {
		if _, err := f.WriteString("\n"); err != nil {
			f.Close()
			return errors.NewPersistenceError("failed to repair record file", t.path, "append", err)
		}
	}

	writer := csv.NewWriter(f)
	if writeHeader {
		_ = writer.Write(header)
	}
	for _, r := range rows {
		_ = writer.Write(r.values(header))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return errors.NewPersistenceError("failed to append records", t.path, "append", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewPersistenceError("failed to close record file", t.path, "append", err)
	}
	return nil
}

// repairTail prepares the file for an append. Lines left with an open quote
// by an interrupted write are cut out (after a backup) so appended rows do not
// become part of them. It reports whether the file lacks a final newline.
func (t *table) repairTail() (bool, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewPersistenceError("failed to read record file", t.path, "read", err)
	}

	cleaned, dropped := dropUnterminated(data)
	if len(dropped) > 0 {
		for _, line := range dropped {
			t.logger.Warn("Dropping row with unterminated quote", zap.String("path", t.path), zap.String("row", line))
		}
		if err := t.replace(func(w io.Writer) error {
			_, err := w.Write(cleaned)
			return err
		}); err != nil {
			return false, err
		}
	}
	return len(cleaned) > 0 && cleaned[len(cleaned)-1] != '\n', nil
}

// rewrite replaces the whole file with rows under the current header.
func (t *table) rewrite(rows []row) error {
	return t.replace(func(w io.Writer) error {
		writer := csv.NewWriter(w)
		_ = writer.Write(t.columns)
		for _, r := range rows {
			_ = writer.Write(r.values(t.columns))
		}
		writer.Flush()
		return writer.Error()
	})
}

// replace writes new content through write into a temporary file and renames
// it over the record file. The previous file is backed up once per table.
func (t *table) replace(write func(io.Writer) error) error {
	if !t.backedUp {
		target, err := Backup(t.path, t.backupDir, t.now())
		if err != nil {
			return err
		}
		t.backedUp = target != ""
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewPersistenceError("failed to create data directory", t.path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return errors.NewPersistenceError("failed to create temporary file", t.path, "rewrite", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewPersistenceError("failed to write records", t.path, "rewrite", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewPersistenceError("failed to close temporary file", t.path, "rewrite", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.NewPersistenceError("failed to set file mode", t.path, "rewrite", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return errors.NewPersistenceError("failed to replace record file", t.path, "rewrite", err)
	}
	return nil
}

func (r row) values(header []string) []string {
	values := make([]string, len(header))
	for i, column := range header {
		values[i] = r[column]
	}
	return values
}

func (r row) line() string {
	return r[lineKey]
}
