/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/phuonguno98/statusdeck/internal/decoder"
	"github.com/phuonguno98/statusdeck/internal/definitions"
	"github.com/phuonguno98/statusdeck/pkg/version"
	"github.com/phuonguno98/statusdeck/web"
)

const (
	// MaxUploadSize limits definitions file upload size (4MB)
	MaxUploadSize = 4 * 1024 * 1024
)

// Server represents the decoder dashboard server.
type Server struct {
	store          *definitions.Store
	definitionsDir string
	logger         *slog.Logger
	router         *mux.Router
	started        time.Time
}

// DecodeResult is the response of the decode endpoint.
type DecodeResult struct {
	Value uint64         `json:"value"`
	Hex   string         `json:"hex"`
	Flags []decoder.Flag `json:"flags"`
}

// NewServer creates a new dashboard server.
// It loads the built-in definitions, scans the definitions directory for
// existing files (without parsing content), and sets up routes.
func NewServer(definitionsDir string, logger *slog.Logger) (*Server, error) {
	if err := os.MkdirAll(definitionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create definitions directory: %w", err)
	}

	store, err := definitions.NewStore(logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:          store,
		definitionsDir: definitionsDir,
		logger:         logger,
		router:         mux.NewRouter(),
		started:        time.Now(),
	}

	s.scanExistingFiles()
	s.setupRoutes()

	return s, nil
}

// scanExistingFiles scans the definitions directory for YAML files and
// registers them. Registration is metadata-only; content is parsed on
// first use (lazy loading).
func (s *Server) scanExistingFiles() {
	files, err := os.ReadDir(s.definitionsDir)
	if err != nil {
		s.logger.Warn("Failed to read definitions directory", "dir", s.definitionsDir, "error", err)
		return
	}

	count := 0
	for _, file := range files {
		if file.IsDir() || !isYAMLName(file.Name()) {
			continue
		}

		fileName := file.Name()
		// ID is the filename without extension (e.g. MyDefs_<uuid>)
		id := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		path := filepath.Join(s.definitionsDir, fileName)

		// Extract display name by removing the uuid suffix.
		// Assumption: suffix starts at the last underscore.
		displayName := id
		if lastIdx := strings.LastIndex(id, "_"); lastIdx != -1 {
			displayName = id[:lastIdx]
		}
		if displayName == "" {
			displayName = id
		}

		// Register only, do not parse content
		s.store.RegisterFile(id, displayName, path)
		count++
	}

	if count > 0 {
		s.logger.Info("Scanned existing definition files", "count", count)
	}
}

// isYAMLName reports whether a filename carries a YAML extension.
func isYAMLName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// sanitizeFilename removes unsafe characters and ensures an ASCII
// compatible name.
func sanitizeFilename(name string) string {
	// Sanitize path components first (security)
	name = filepath.Base(name)

	// Remove extension
	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext)

	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == ' ' {
			return r
		}
		if r == '_' {
			return r
		}
		// Convert common separators to dash
		if r == '.' || r == ':' {
			return '-'
		}
		return -1
	}, name)

	safe = strings.TrimSpace(safe)
	if safe == "" {
		return "unnamed"
	}
	// Limit length
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return safe
}

func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(corsMiddleware)
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/health", s.handleGetHealth).Methods("GET")
	s.router.HandleFunc("/api/files", s.handleGetFiles).Methods("GET")
	s.router.HandleFunc("/api/files", s.handleDeleteAllFiles).Methods("DELETE")
	s.router.HandleFunc("/api/files/upload", s.handleUploadFile).Methods("POST")
	s.router.HandleFunc("/api/files/{id}", s.handleDeleteFile).Methods("DELETE")
	s.router.HandleFunc("/api/files/{id}/categories", s.handleGetCategories).Methods("GET")
	s.router.HandleFunc("/api/decode/{fileId}/{category}", s.handleDecode).Methods("GET")

	// Static files from embedded FS
	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		s.logger.Error("Failed to get static assets", "error", err)
	}
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", s.staticFileHandler(staticFS)))
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// staticFileHandler serves static files with caching disabled.
func (s *Server) staticFileHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fileServer.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleIndex serves the main decoder HTML page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	indexFile, err := web.Assets.Open("index.html")
	if err != nil {
		s.logger.Error("Failed to open index.html", "error", err)
		http.Error(w, "Internal Server Error: index.html not found", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := indexFile.Close(); err != nil {
			s.logger.Warn("Failed to close index.html", "error", err)
		}
	}()

	if _, err := io.Copy(w, indexFile); err != nil {
		s.logger.Error("Failed to serve index.html", "error", err)
	}
}

// handleGetFiles returns all registered definition files.
func (s *Server) handleGetFiles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.store.Files())
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	versionInfo := map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	}
	s.writeJSON(w, versionInfo)
}

// handleUploadFile handles definitions file uploads.
// It validates the file extension, sanitizes the filename, saves it to
// disk, and parses it into the store.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	// Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		s.writeError(w, "File too large or invalid form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	// Validate file extension
	if !isYAMLName(header.Filename) {
		s.writeError(w, "Only YAML definition files are allowed", http.StatusBadRequest)
		return
	}

	// Validate filename (prevent path traversal)
	filename := filepath.Base(header.Filename)
	if filename != header.Filename {
		s.writeError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	// 1. Sanitize the original filename to be safe for disk/URL
	safeName := sanitizeFilename(filename)

	// 2. Add UUID suffix to ensure uniqueness and prevent overwrites.
	// Format: Name_UUID.yaml
	id := uuid.New().String()
	fileID := fmt.Sprintf("%s_%s", safeName, id)

	// 3. Construct paths
	fileNameOnDisk := fileID + ".yaml"
	filePath := filepath.Join(s.definitionsDir, fileNameOnDisk)

	dst, err := os.Create(filePath)
	if err != nil {
		s.logger.Error("Failed to create file", "error", err)
		s.writeError(w, "Failed to create file", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := dst.Close(); err != nil {
			s.logger.Warn("Failed to close destination file", "path", filePath, "error", err)
		}
	}()

	if _, err := io.Copy(dst, file); err != nil {
		if rmErr := os.Remove(filePath); rmErr != nil {
			s.logger.Error("Failed to remove incomplete file", "path", filePath, "error", rmErr)
		}
		s.logger.Error("Failed to save file", "error", err)
		s.writeError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	// Parse with derived display name (safeName) and unique ID
	if err := s.store.LoadFile(fileID, safeName, filePath); err != nil {
		if rmErr := os.Remove(filePath); rmErr != nil {
			s.logger.Error("Failed to remove invalid definitions file", "path", filePath, "error", rmErr)
		}
		s.logger.Warn("Failed to load definitions", "error", err, "filename", header.Filename)
		s.writeError(w, fmt.Sprintf("Failed to load definitions: %v", err), http.StatusBadRequest)
		return
	}

	info, _ := s.store.File(fileID)
	s.logger.Info("Definitions uploaded", "name", header.Filename, "saved_as", fileNameOnDisk, "categories", info.Categories)
	s.writeJSON(w, info)
}

// handleDeleteFile removes a definitions file from both memory and disk.
// The built-in definitions are protected.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["id"]

	if fileID == definitions.BuiltInID {
		s.writeError(w, "The built-in definitions cannot be deleted", http.StatusBadRequest)
		return
	}

	// Resolve the on-disk path before the registry entry disappears.
	// Scanned files may carry a .yml extension, so the path cannot be
	// rebuilt from the ID.
	filePath := filepath.Join(s.definitionsDir, fileID+".yaml")
	if info, ok := s.store.File(fileID); ok && info.Path != "" {
		filePath = info.Path
	}

	// Remove from memory
	if err := s.store.Delete(fileID); err != nil {
		s.logger.Warn("File not found in store during delete", "id", fileID)
	}

	// Remove from disk
	if err := os.Remove(filePath); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to delete file from disk", "path", filePath, "error", err)
		}
	}

	s.logger.Info("Definitions file deleted", "id", fileID)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllFiles removes all uploaded definitions from memory and
// disk, keeping only the built-in set.
func (s *Server) handleDeleteAllFiles(w http.ResponseWriter, _ *http.Request) {
	// 1. Clear memory (built-in survives)
	s.store.DeleteAll()

	// 2. Clear disk. We remove YAML files individually rather than
	// deleting the folder itself to preserve directory permissions.
	entries, err := os.ReadDir(s.definitionsDir)
	if err != nil {
		s.logger.Error("Failed to read definitions dir for cleaning", "error", err)
		s.writeError(w, "Failed to clean storage", http.StatusInternalServerError)
		return
	}

	deletedCount := 0
	for _, entry := range entries {
		if !entry.IsDir() && isYAMLName(entry.Name()) {
			path := filepath.Join(s.definitionsDir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Error("Failed to delete file", "path", path, "error", err)
			} else {
				deletedCount++
			}
		}
	}

	s.logger.Info("Definitions cleared", "deleted_files", deletedCount)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCategories returns the categories of one definitions file.
// It triggers lazy parsing for files that were only registered at scan.
func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["id"]

	if err := s.ensureLoaded(fileID); err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	categories, err := s.store.Categories(fileID)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"categories": categories,
	})
}

// handleDecode decodes a status value against one category.
// The value comes from the 'value' query parameter; invalid input is a
// user error (400), unknown file or category a lookup failure (404).
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["fileId"]
	category := vars["category"]

	value, err := decoder.ParseValue(r.URL.Query().Get("value"))
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.ensureLoaded(fileID); err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	cat, err := s.store.Category(fileID, category)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	s.writeJSON(w, DecodeResult{
		Value: value,
		Hex:   fmt.Sprintf("0x%X", value),
		Flags: decoder.Decode(value, cat.Fields),
	})
}

// ensureLoaded parses a registered-but-unparsed file on first access.
func (s *Server) ensureLoaded(fileID string) error {
	info, ok := s.store.File(fileID)
	if !ok {
		return fmt.Errorf("definitions file not found: %s", fileID)
	}
	if info.IsLoaded {
		return nil
	}
	return s.store.LoadFileContent(fileID)
}

// DefinitionsDir returns the absolute path of the definitions directory.
func (s *Server) DefinitionsDir() string {
	return s.definitionsDir
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
