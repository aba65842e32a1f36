package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFile is returned for names that are not spreadsheet workbooks
var ErrUnsupportedFile = errors.New("unsupported file type")

// WorkbookExtensions lists the accepted workbook extensions
var WorkbookExtensions = []string{".xlsx", ".xls"}

// FileValidator provides the file checks shared by the CLI and the upload path
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateWorkbookName checks that a file name looks like an Excel workbook.
// Office lock files ("~$book.xlsx") are rejected as well.
func (v *FileValidator) ValidateWorkbookName(name string) error {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))

	supported := false
	for _, e := range WorkbookExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		v.logger.Warn("File is not an Excel workbook",
			slog.String("file", name),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s (extension %q)", ErrUnsupportedFile, base, ext)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", name))
		return fmt.Errorf("%w: %s is a temporary Excel file", ErrUnsupportedFile, base)
	}

	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks that path is a readable workbook file
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateWorkbookName(path)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ExpandInputs resolves command line inputs into workbook paths. Directories
// contribute every workbook directly inside them, sorted by name; files are
// kept as given. Duplicates are removed, first occurrence wins.
func (v *FileValidator) ExpandInputs(inputs []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			paths = append(paths, clean)
		}
	}

	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}

		info, err := os.Stat(in)
		if err == nil && info.IsDir() {
			found, err := v.workbooksIn(in)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				v.logger.Warn("No workbooks found in directory",
					slog.String("directory", in))
			}
			for _, f := range found {
				add(f)
			}
			continue
		}
		add(in)
	}

	return paths, nil
}

// workbooksIn lists the workbook files of a directory
func (v *FileValidator) workbooksIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if (ext == ".xlsx" || ext == ".xls") && !strings.HasPrefix(e.Name(), "~$") {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(found)

	v.logger.Debug("Workbooks found",
		slog.String("directory", dir),
		slog.Int("count", len(found)))
	return found, nil
}
