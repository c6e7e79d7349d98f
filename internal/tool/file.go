package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// systemDirs are path prefixes the write tool refuses to touch.
var systemDirs = []string{"/bin", "/sbin", "/usr/bin", "/usr/sbin", "/boot", "/sys", "/proc"}

// ReadFileTool reads the contents of a file.
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool { return &ReadFileTool{} }

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Returns the file content as text."
}

func (t *ReadFileTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "file_path",
			Type:        "string",
			Description: "Path to the file to read (relative or absolute)",
			Required:    true,
		},
		{
			Name:        "max_size_mb",
			Type:        "number",
			Description: "Maximum file size to read in MB (default: 10)",
			Default:     10,
		},
	}
}

func (t *ReadFileTool) Execute(_ context.Context, params map[string]any) Result {
	filePath := stringParam(params, "file_path", "")
	maxSizeMB := numberParam(params, "max_size_mb", 10)

	path, err := filepath.Abs(filePath)
	if err != nil {
		return Errorf("invalid path: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Errorf("File does not exist: %s", filePath)
		}
		return Errorf("cannot access file: %v", err)
	}
	if info.IsDir() {
		return Errorf("Path is not a file: %s", filePath)
	}

	maxBytes := int64(maxSizeMB * 1024 * 1024)
	if info.Size() > maxBytes {
		return Errorf("File too large: %.2fMB (max: %gMB)",
			float64(info.Size())/1024/1024, maxSizeMB)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return Errorf("Permission denied reading file: %s", filePath)
		}
		return Errorf("failed to read file: %v", err)
	}

	content := string(data)
	return Result{
		Status:  StatusSuccess,
		Content: content,
		Metadata: map[string]any{
			"file_path": path,
			"file_size": info.Size(),
			"lines":     len(strings.Split(content, "\n")),
		},
	}
}

// WriteFileTool writes content to a file, creating or overwriting it.
type WriteFileTool struct{}

func NewWriteFileTool() *WriteFileTool { return &WriteFileTool{} }

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Write content to a file. Creates the file if it doesn't exist, or overwrites if it does."
}

func (t *WriteFileTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "file_path",
			Type:        "string",
			Description: "Path to the file to write (relative or absolute)",
			Required:    true,
		},
		{
			Name:        "content",
			Type:        "string",
			Description: "Content to write to the file",
			Required:    true,
		},
		{
			Name:        "create_dirs",
			Type:        "boolean",
			Description: "Create parent directories if they don't exist (default: false)",
			Default:     false,
		},
	}
}

func (t *WriteFileTool) Execute(_ context.Context, params map[string]any) Result {
	filePath := stringParam(params, "file_path", "")
	content := stringParam(params, "content", "")
	createDirs := boolParam(params, "create_dirs", false)

	path, err := filepath.Abs(filePath)
	if err != nil {
		return Errorf("invalid path: %v", err)
	}

	for _, sysDir := range systemDirs {
		if strings.HasPrefix(path, sysDir) {
			return Errorf("Cannot write to system directory: %s", sysDir)
		}
	}

	parent := filepath.Dir(path)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		if !createDirs {
			return Errorf("Parent directory does not exist: %s. Use create_dirs=true to create it.", parent)
		}
		if err := os.MkdirAll(parent, 0755); err != nil {
			return Errorf("failed to create directory: %v", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		if os.IsPermission(err) {
			return Errorf("Permission denied writing to file: %s", filePath)
		}
		return Errorf("failed to write file: %v", err)
	}

	info, _ := os.Stat(path)
	var written int64
	if info != nil {
		written = info.Size()
	}

	return Result{
		Status:  StatusSuccess,
		Content: fmt.Sprintf("Successfully wrote %d characters to %s", len(content), filePath),
		Metadata: map[string]any{
			"file_path":     path,
			"bytes_written": written,
			"lines_written": len(strings.Split(content, "\n")),
		},
	}
}

// ListDirectoryTool lists files and subdirectories of a directory.
type ListDirectoryTool struct{}

func NewListDirectoryTool() *ListDirectoryTool { return &ListDirectoryTool{} }

func (t *ListDirectoryTool) Name() string { return "list_directory" }
func (t *ListDirectoryTool) Description() string {
	return "List the contents of a directory, showing files and subdirectories."
}

func (t *ListDirectoryTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "dir_path",
			Type:        "string",
			Description: "Path to the directory to list (default: current directory)",
			Default:     ".",
		},
		{
			Name:        "show_hidden",
			Type:        "boolean",
			Description: "Include hidden files/directories (starting with .)",
			Default:     false,
		},
		{
			Name:        "show_details",
			Type:        "boolean",
			Description: "Show file details (size, modification time)",
			Default:     false,
		},
	}
}

func (t *ListDirectoryTool) Execute(_ context.Context, params map[string]any) Result {
	dirPath := stringParam(params, "dir_path", ".")
	showHidden := boolParam(params, "show_hidden", false)
	showDetails := boolParam(params, "show_details", false)

	path, err := filepath.Abs(dirPath)
	if err != nil {
		return Errorf("invalid path: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Errorf("Directory does not exist: %s", dirPath)
		}
		if os.IsPermission(err) {
			return Errorf("Permission denied accessing directory: %s", dirPath)
		}
		return Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return Errorf("Path is not a directory: %s", dirPath)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return Errorf("failed to list directory: %v", err)
	}

	var items []string
	for _, e := range entries {
		if !showHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if showDetails {
			fi, err := e.Info()
			if err != nil {
				continue
			}
			kind := "FILE"
			size := fmt.Sprintf("%10d", fi.Size())
			if e.IsDir() {
				kind = "DIR"
				size = "         -"
			}
			items = append(items, fmt.Sprintf("%-4s %s %s %s",
				kind, size, fi.ModTime().Format("2006-01-02 15:04:05"), e.Name()))
		} else {
			marker := "📄"
			if e.IsDir() {
				marker = "📁"
			}
			items = append(items, marker+" "+e.Name())
		}
	}
	sort.Strings(items)

	content := fmt.Sprintf("Directory %s is empty", path)
	if len(items) > 0 {
		content = fmt.Sprintf("Contents of %s:\n%s", path, strings.Join(items, "\n"))
	}

	return Result{
		Status:  StatusSuccess,
		Content: content,
		Metadata: map[string]any{
			"directory_path": path,
			"item_count":     len(items),
		},
	}
}
